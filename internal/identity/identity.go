// Package identity resolves who is acting (user and host) for lock holder
// metadata and audit entries.
//
// The acting identity travels on the context so a front end can override it
// (for example a --user flag) without threading it through every call.
package identity

import (
	"context"
	"os"
	"os/user"
	"strings"
)

// Unknown is used when a user or host cannot be determined.
const Unknown = "unknown"

// Actor identifies the person and machine performing an operation.
type Actor struct {
	User     string `json:"user"`
	Hostname string `json:"hostname"`
}

// Current resolves the actor from the operating system. Environment
// variables win over the account database so shared service accounts can be
// labeled.
func Current() Actor {
	return Actor{User: currentUser(), Hostname: currentHost()}
}

func currentUser() string {
	for _, env := range []string{"CASEBOOK_USER", "USERNAME", "USER"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return Unknown
}

func currentHost() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return Unknown
}

type actorKey struct{}

// WithActor returns a context carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor stored on ctx, filling blanks from Current.
func FromContext(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	if a.User == "" || a.Hostname == "" {
		cur := Current()
		if a.User == "" {
			a.User = cur.User
		}
		if a.Hostname == "" {
			a.Hostname = cur.Hostname
		}
	}
	return a
}
