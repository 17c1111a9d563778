package transfer

import (
	"fmt"

	"driftp/pkg/vfs"
)

// ExistsError reports a destination collision; transfers never overwrite.
type ExistsError struct {
	Namespace vfs.Namespace
	Path      string
}

func (e *ExistsError) Error() string {
	if e.Namespace == vfs.Local {
		return fmt.Sprintf("local file %s already exists", e.Path)
	}
	return fmt.Sprintf("remote file %s already exists", e.Path)
}

// ParentError reports an attempt to transfer the parent marker.
type ParentError struct {
	Namespace vfs.Namespace
	Path      string
}

func (e *ParentError) Error() string {
	if e.Namespace == vfs.Local {
		return fmt.Sprintf("cannot upload parent directory %s", e.Path)
	}
	return fmt.Sprintf("cannot download parent directory %s", e.Path)
}
