package auth

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthResult is the normalized success contract for identity operations,
// regardless of which response shape the backend produced.
type AuthResult struct {
	User  *User
	Token string
}

// IdentityClient is the only component permitted to answer identity
// operations, either against the LMS API or from the offline demo table.
type IdentityClient interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Me(ctx context.Context, token string) (*User, error)
	UpdateMe(ctx context.Context, token string, patch ProfilePatch) (*User, error)
}

// SessionStore persists the credential and profile between runs. Save must
// write the profile before the token so a partial write is read back as "no
// session". Load must not fail on a corrupt profile; it reports an empty
// session instead.
type SessionStore interface {
	Save(ctx context.Context, token string, user *User) error
	Load(ctx context.Context) (token string, user *User, err error)
	Clear(ctx context.Context) error
}

// DefaultLogger returns the package's stdout logger
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
