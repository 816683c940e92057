package util

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test 1: An empty request id is replaced with a generated one
func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	assert.NotEmpty(t, GetRequestID(ctx))

	ctx = WithRequestID(context.Background(), "fixed-id")
	assert.Equal(t, "fixed-id", GetRequestID(ctx))

	assert.Empty(t, GetRequestID(context.Background()))
}

// Test 2: Session and actor ids round-trip through the context
func TestSessionAndActorIDs(t *testing.T) {
	ctx := WithSessionID(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	ctx = WithActorID(ctx, "7")

	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", GetSessionID(ctx))
	assert.Equal(t, "7", GetActorID(ctx))

	assert.Empty(t, GetSessionID(context.Background()))
	assert.Empty(t, GetActorID(context.Background()))
}

// Test 3: FieldsFromContext exposes every id this library sets
func TestFieldsFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithActorID(ctx, "actor-1")

	extractor := &FieldsFromContext{}
	fields := extractor.Fields(ctx)

	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "sess-1", fields["session_id"])
	assert.Equal(t, "actor-1", fields["actor_id"])
}
