package trust

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Trust failures, distinguished so the caller can tell a declined host
// from an identity mismatch.
var (
	// ErrHostAuthentication means the user declined a first-contact host.
	ErrHostAuthentication = errors.New("the authenticity of the host cannot be established")

	// ErrMismatchedFingerprint means the host presented a key that differs
	// from the stored record. Never downgraded to a prompt.
	ErrMismatchedFingerprint = errors.New("possible person in the middle attack: host key mismatch")

	// ErrHostFileCheck means the known-hosts file could not be read or
	// written.
	ErrHostFileCheck = errors.New("unable to check known hosts")
)

// Status is the outcome of a host key lookup.
type Status int

const (
	StatusMatch Status = iota
	StatusUnknown
	StatusMismatch
)

// PromptFunc asks the user whether to trust a first-contact host. It
// receives the dialed address and the key's fingerprint and returns
// whether the user accepted.
type PromptFunc func(host, fingerprint string) bool

// Store wraps an OpenSSH-format known-hosts file holding one record per
// previously accepted host identity.
type Store struct {
	path string
}

// NewStore opens the known-hosts file at path, creating an empty one
// (and its parent directory) on first use.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHostFileCheck, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHostFileCheck, err)
	}
	f.Close()
	return &Store{path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Check looks up the host's key in the store.
func (s *Store) Check(hostport string, remote net.Addr, key ssh.PublicKey) (Status, error) {
	callback, err := knownhosts.New(s.path)
	if err != nil {
		return StatusMismatch, fmt.Errorf("%w: %v", ErrHostFileCheck, err)
	}

	err = callback(hostport, remote, key)
	if err == nil {
		return StatusMatch, nil
	}
	var keyErr *knownhosts.KeyError
	if errors.As(err, &keyErr) {
		if len(keyErr.Want) == 0 {
			return StatusUnknown, nil
		}
		return StatusMismatch, nil
	}
	var revokedErr *knownhosts.RevokedError
	if errors.As(err, &revokedErr) {
		return StatusMismatch, nil
	}
	return StatusMismatch, fmt.Errorf("%w: %v", ErrHostFileCheck, err)
}

// Add appends a trust record for the host. Callers must only do this
// after explicit user acceptance.
func (s *Store) Add(hostport string, key ssh.PublicKey) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHostFileCheck, err)
	}
	defer f.Close()

	line := knownhosts.Line([]string{knownhosts.Normalize(hostport)}, key)
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrHostFileCheck, err)
	}
	return nil
}

// Fingerprint returns the human-readable SHA256 fingerprint of a host key.
func Fingerprint(key ssh.PublicKey) string {
	return ssh.FingerprintSHA256(key)
}

// Callback builds the host key verification callback for an SSH
// handshake: known hosts pass, first-contact hosts go through prompt,
// mismatches fail hard without ever prompting.
func (s *Store) Callback(prompt PromptFunc) ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		status, err := s.Check(hostname, remote, key)
		if err != nil {
			return err
		}
		switch status {
		case StatusMatch:
			return nil
		case StatusMismatch:
			return ErrMismatchedFingerprint
		default:
			if prompt != nil && prompt(hostname, Fingerprint(key)) {
				return s.Add(hostname, key)
			}
			return ErrHostAuthentication
		}
	}
}
