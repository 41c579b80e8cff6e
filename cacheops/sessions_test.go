package cacheops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionsRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	sessions := NewSessions(svc)

	_, ok := sessions.Get(ctx, "tok1")
	assert.False(t, ok)

	data := map[string]any{"userId": "u1", "email": "ada@example.test"}
	assert.NoError(t, sessions.Put(ctx, "tok1", data))

	got, ok := sessions.Get(ctx, "tok1")
	assert.True(t, ok)
	assert.Equal(t, "u1", got["userId"])

	sessions.Delete(ctx, "tok1")
	_, ok = sessions.Get(ctx, "tok1")
	assert.False(t, ok)
}
