package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent_EnvOverride(t *testing.T) {
	t.Setenv("CASEBOOK_USER", "clerk")

	a := Current()
	assert.Equal(t, "clerk", a.User)
	assert.NotEmpty(t, a.Hostname)
}

func TestFromContext_FillsBlanks(t *testing.T) {
	t.Setenv("CASEBOOK_USER", "fallback")

	ctx := WithActor(context.Background(), Actor{User: "alice"})
	a := FromContext(ctx)
	assert.Equal(t, "alice", a.User)
	assert.NotEmpty(t, a.Hostname)

	a = FromContext(context.Background())
	assert.Equal(t, "fallback", a.User)
}

func TestFromContext_Explicit(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{User: "bob", Hostname: "desk-7"})
	assert.Equal(t, Actor{User: "bob", Hostname: "desk-7"}, FromContext(ctx))
}
