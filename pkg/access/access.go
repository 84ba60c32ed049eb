// Package access decides who may change the media repository.
package access

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnauthorized is returned when the current identity may not perform
// an admin operation.
var ErrUnauthorized = errors.New("access: unauthorized")

// Policy is an allowlist of admin identities (email addresses), matched
// case-insensitively.
type Policy struct {
	admins map[string]struct{}
}

// NewPolicy creates a policy allowing the given identities.
func NewPolicy(admins ...string) *Policy {
	p := &Policy{admins: make(map[string]struct{}, len(admins))}
	for _, a := range admins {
		if a = normalize(a); a != "" {
			p.admins[a] = struct{}{}
		}
	}
	return p
}

// ParsePolicy reads a comma or whitespace separated allowlist.
func ParsePolicy(list string) *Policy {
	return NewPolicy(strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})...)
}

func normalize(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// IsAuthorized reports whether identity is an admin. The empty identity
// never is.
func (p *Policy) IsAuthorized(identity string) bool {
	if p == nil {
		return false
	}
	id := normalize(identity)
	if id == "" {
		return false
	}
	_, ok := p.admins[id]
	return ok
}

// Len is the number of admins.
func (p *Policy) Len() int {
	if p == nil {
		return 0
	}
	return len(p.admins)
}

// SessionProvider returns the identity of the current user, or "" when
// nobody is signed in.
type SessionProvider interface {
	Identity(ctx context.Context) (string, error)
}

// EnvSession reads the identity from an environment variable.
type EnvSession struct {
	Var    string
	Lookup func(string) (string, bool)
}

// DefaultSessionVar is the variable EnvSession reads by default.
const DefaultSessionVar = "INFINIGALLERY_USER"

// NewEnvSession creates a session reading name from the process
// environment.
func NewEnvSession(name string) *EnvSession {
	if name == "" {
		name = DefaultSessionVar
	}
	return &EnvSession{Var: name, Lookup: os.LookupEnv}
}

// Identity implements SessionProvider.
func (s *EnvSession) Identity(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, _ := lookup(s.Var)
	return strings.TrimSpace(v), nil
}

// Require returns nil when the session's identity is authorized, and an
// error wrapping ErrUnauthorized otherwise.
func Require(ctx context.Context, p *Policy, s SessionProvider) error {
	if s == nil {
		return fmt.Errorf("%w: no session", ErrUnauthorized)
	}
	id, err := s.Identity(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if id == "" {
		return fmt.Errorf("%w: not signed in", ErrUnauthorized)
	}
	if !p.IsAuthorized(id) {
		return fmt.Errorf("%w: %s is not an admin", ErrUnauthorized, id)
	}
	return nil
}
