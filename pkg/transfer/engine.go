package transfer

import (
	"fmt"
	"io"
	"log"

	"driftp/pkg/message"
	"driftp/pkg/progress"
	"driftp/pkg/vfs"
)

// copyBufferSize is the chunk size files stream through.
const copyBufferSize = 1 << 20

// job is one pending unit of work: copy entry into destDir on the
// destination side.
type job struct {
	entry   vfs.Entry
	destDir string
}

// Engine copies entries between two namespaces. It has no transfer
// state of its own; each Transfer call walks its own queue, so one
// engine serves any number of concurrent top-level transfers.
//
// Direction falls out of the (src, dst) pair: local→remote is an
// upload, remote→local a download. The engine never looks.
type Engine struct {
	registry *progress.Registry
	messages *message.Queue
}

func NewEngine(registry *progress.Registry, messages *message.Queue) *Engine {
	return &Engine{registry: registry, messages: messages}
}

// Transfer copies entry from src into destDir on dst, recursing
// breadth-first through directories. Existing destinations are never
// overwritten. The first fatal error abandons the remaining queue;
// partially written destination files are left in place.
func (e *Engine) Transfer(src, dst vfs.FS, entry vfs.Entry, destDir string) error {
	if entry.Kind == vfs.KindParent {
		return &ParentError{Namespace: src.Namespace(), Path: entry.Path}
	}

	// Directory transfers get an aggregate meter counting completed
	// files. Finished on every exit path so the registry can prune it.
	var aggregate *progress.Meter
	if entry.IsDir() {
		aggregate = progress.NewDirectoryMeter(entry.Name())
		e.registry.Add(aggregate)
		defer aggregate.Finish()
	}

	queue := []job{{entry: entry, destDir: destDir}}
	for len(queue) > 0 {
		j := queue[0]
		queue = queue[1:]

		switch j.entry.Kind {
		case vfs.KindSymlink:
			log.Printf("[WARN] Skipping symlink %s", j.entry.Path)
			e.messages.Warn(fmt.Sprintf("skipped symlink %s", j.entry.Name()))
		case vfs.KindDir:
			children, err := e.enterDirectory(src, dst, j)
			if err != nil {
				return err
			}
			queue = append(queue, children...)
		default:
			if err := e.copyFile(src, dst, j.entry, j.destDir, aggregate); err != nil {
				return err
			}
		}
	}
	return nil
}

// enterDirectory creates the directory's counterpart under destDir and
// returns its children as jobs targeting the new directory.
func (e *Engine) enterDirectory(src, dst vfs.FS, j job) ([]job, error) {
	target := dst.Join(j.destDir, j.entry.Name())
	exists, err := dst.Exists(target)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", target, err)
	}
	if exists {
		return nil, &ExistsError{Namespace: dst.Namespace(), Path: target}
	}
	if err := dst.Mkdir(target); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", target, err)
	}

	children, err := src.List(j.entry.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", j.entry.Path, err)
	}
	jobs := make([]job, 0, len(children))
	for _, child := range children {
		jobs = append(jobs, job{entry: child, destDir: target})
	}
	return jobs, nil
}

// copyFile streams one file src→dst with a dedicated meter.
func (e *Engine) copyFile(src, dst vfs.FS, entry vfs.Entry, destDir string, aggregate *progress.Meter) error {
	target := dst.Join(destDir, entry.Name())
	exists, err := dst.Exists(target)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", target, err)
	}
	if exists {
		return &ExistsError{Namespace: dst.Namespace(), Path: target}
	}

	meter := progress.NewMeter(entry.Name(), entry.Size)
	e.registry.Add(meter)
	defer meter.Finish()

	in, err := src.Open(entry.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", entry.Path, err)
	}
	defer in.Close()

	out, err := dst.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	buf := make([]byte, copyBufferSize)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				return fmt.Errorf("failed to write %s: %w", target, werr)
			}
			meter.Record(int64(n))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			return fmt.Errorf("failed to read %s: %w", entry.Path, rerr)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", target, err)
	}

	if aggregate != nil {
		aggregate.RecordFile(entry.Size)
	}
	log.Printf("[INFO] Transferred %s -> %s", entry.Path, target)
	return nil
}
