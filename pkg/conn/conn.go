package conn

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"driftp/pkg/trust"
)

var (
	// ErrInvalidPortNumber means the -p argument did not parse as a port.
	ErrInvalidPortNumber = errors.New("unable to parse port number")

	// ErrUserAuthentication means every offered credential method was
	// exhausted without the server accepting one.
	ErrUserAuthentication = errors.New("unable to authenticate session")
)

// connectTimeout bounds the TCP connect and SSH handshake.
const connectTimeout = 10 * time.Second

// passwordAttempts is how many times the user is asked for a password
// before the method counts as exhausted.
const passwordAttempts = 3

// PasswordFunc asks the user for a password. Called at most
// passwordAttempts times.
type PasswordFunc func(prompt string) (string, error)

// Session is an authenticated connection to one remote endpoint.
type Session struct {
	client *ssh.Client
	user   string
	addr   string
}

// Establish turns (destination, port, username) into an authenticated
// session: it resolves the address, verifies the host identity against
// the trust store (prompting on first contact), and walks the credential
// methods until one succeeds.
func Establish(destination, port, username string, store *trust.Store, prompt trust.PromptFunc, askPassword PasswordFunc) (*Session, error) {
	addr, err := resolveAddr(destination, port)
	if err != nil {
		return nil, err
	}

	// The handshake reports host key failures as a generic handshake
	// error; keep the trust verdict so it wins over the auth error.
	var trustErr error
	hostKeyCallback := store.Callback(prompt)
	config := &ssh.ClientConfig{
		User: username,
		Auth: authMethods(askPassword),
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			if err := hostKeyCallback(hostname, remote, key); err != nil {
				trustErr = err
				return err
			}
			return nil
		},
		Timeout: connectTimeout,
	}

	log.Printf("[INFO] Connecting to %s as %s", addr, username)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		if trustErr != nil {
			return nil, trustErr
		}
		if isAuthFailure(err) {
			return nil, fmt.Errorf("%w for %s: %v", ErrUserAuthentication, username, err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	log.Printf("[INFO] Authenticated to %s", addr)
	return &Session{client: client, user: username, addr: addr}, nil
}

// resolveAddr turns a destination and optional port string into a dial
// address. With no explicit port, a destination that already carries one
// is used as given; otherwise port 22 applies.
func resolveAddr(destination, port string) (string, error) {
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return "", ErrInvalidPortNumber
		}
		return net.JoinHostPort(destination, port), nil
	}
	if _, _, err := net.SplitHostPort(destination); err == nil {
		return destination, nil
	}
	return net.JoinHostPort(destination, "22"), nil
}

// authMethods builds the credential methods in order of preference:
// agent public keys first (skipped silently when no agent is reachable),
// then an interactive password retried up to passwordAttempts times. The
// transport re-scans the server's offered methods between attempts.
func authMethods(askPassword PasswordFunc) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if agentConn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(agentConn).Signers))
		} else {
			log.Printf("[WARN] SSH agent unreachable: %v", err)
		}
	}

	if askPassword != nil {
		callback := func() (string, error) {
			return askPassword("Password: ")
		}
		methods = append(methods, ssh.RetryableAuthMethod(ssh.PasswordCallback(callback), passwordAttempts))
	}

	return methods
}

func isAuthFailure(err error) bool {
	// x/crypto/ssh reports exhaustion as "ssh: unable to authenticate".
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}

// User returns the authenticated username.
func (s *Session) User() string {
	return s.user
}

// Addr returns the dialed address.
func (s *Session) Addr() string {
	return s.addr
}

// SFTP opens the file-transfer subchannel on the session.
func (s *Session) SFTP() (*sftp.Client, error) {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}
	return client, nil
}

// Close tears down the connection.
func (s *Session) Close() error {
	return s.client.Close()
}
