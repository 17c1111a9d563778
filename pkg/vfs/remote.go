package vfs

import (
	"fmt"
	"io"
	"os"
	pus "path"

	"github.com/pkg/sftp"
)

// SFTPFS backs the remote namespace with an SFTP subchannel.
type SFTPFS struct {
	client *sftp.Client
}

// NewSFTP wraps an established SFTP client.
func NewSFTP(client *sftp.Client) *SFTPFS {
	return &SFTPFS{client: client}
}

func (r *SFTPFS) Namespace() Namespace {
	return Remote
}

// WorkingDirectory returns the session's remote working directory,
// falling back to "/" when the server does not report one.
func (r *SFTPFS) WorkingDirectory() string {
	wd, err := r.client.Getwd()
	if err != nil || wd == "" {
		return "/"
	}
	return wd
}

// List returns the children of dir sorted per Sort, without a parent marker.
func (r *SFTPFS) List(dir string) ([]Entry, error) {
	infos, err := r.client.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		path := pus.Join(dir, info.Name())
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			entries = append(entries, Entry{Namespace: Remote, Kind: KindSymlink, Path: path})
		case info.IsDir():
			entries = append(entries, Entry{Namespace: Remote, Kind: KindDir, Path: path})
		default:
			entries = append(entries, Entry{Namespace: Remote, Kind: KindFile, Path: path, Size: info.Size()})
		}
	}
	Sort(entries)
	return entries, nil
}

func (r *SFTPFS) Open(path string) (io.ReadCloser, error) {
	return r.client.Open(path)
}

func (r *SFTPFS) Create(path string) (io.WriteCloser, error) {
	return r.client.Create(path)
}

func (r *SFTPFS) Mkdir(path string) error {
	return r.client.Mkdir(path)
}

func (r *SFTPFS) Exists(path string) (bool, error) {
	_, err := r.client.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (r *SFTPFS) Join(dir, name string) string {
	return pus.Join(dir, name)
}

func (r *SFTPFS) Parent(dir string) (string, bool) {
	parent := pus.Dir(dir)
	return parent, parent != dir
}

// Canonicalize is the identity for remote paths. The server interprets
// them; resolving locally could disagree with the server's view.
func (r *SFTPFS) Canonicalize(path string) (string, error) {
	return pus.Clean(path), nil
}
