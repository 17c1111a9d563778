package conn

import (
	"errors"
	"testing"
)

func TestResolveAddr(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		port        string
		want        string
		wantErr     error
	}{
		{"default port", "example.com", "", "example.com:22", nil},
		{"explicit port", "example.com", "2222", "example.com:2222", nil},
		{"destination carries port", "example.com:2200", "", "example.com:2200", nil},
		{"ipv6 default", "::1", "", "[::1]:22", nil},
		{"ipv6 explicit", "::1", "22", "[::1]:22", nil},
		{"port not a number", "example.com", "abc", "", ErrInvalidPortNumber},
		{"port zero", "example.com", "0", "", ErrInvalidPortNumber},
		{"port too large", "example.com", "70000", "", ErrInvalidPortNumber},
		{"negative port", "example.com", "-1", "", ErrInvalidPortNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveAddr(tt.destination, tt.port)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("resolveAddr(%q, %q) error = %v, want %v", tt.destination, tt.port, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveAddr(%q, %q) = %q, want %q", tt.destination, tt.port, got, tt.want)
			}
		})
	}
}

func TestAuthMethodsWithoutAgent(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	methods := authMethods(func(string) (string, error) { return "hunter2", nil })
	if len(methods) != 1 {
		t.Fatalf("Expected only the password method, got %d methods", len(methods))
	}
}

func TestAuthMethodsNilPassword(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	methods := authMethods(nil)
	if len(methods) != 0 {
		t.Fatalf("Expected no methods without agent or password, got %d", len(methods))
	}
}

func TestIsAuthFailure(t *testing.T) {
	if !isAuthFailure(errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]")) {
		t.Error("Auth exhaustion not recognized")
	}
	if isAuthFailure(errors.New("dial tcp: connection refused")) {
		t.Error("Connection error misclassified as auth failure")
	}
	if isAuthFailure(nil) {
		t.Error("nil misclassified")
	}
}
