package context_test

import (
	"context"
	"testing"

	utilsContext "github.com/muhammadheryan/event-ticket/utils/context"
	"github.com/stretchr/testify/assert"
)

func TestUserID(t *testing.T) {
	_, ok := utilsContext.GetUserID(context.Background())
	assert.False(t, ok)

	_, ok = utilsContext.GetUserID(utilsContext.WithUserID(context.Background(), 0))
	assert.False(t, ok, "zero id is not a user")

	id, ok := utilsContext.GetUserID(utilsContext.WithUserID(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, utilsContext.GetRequestID(context.Background()))

	ctx := utilsContext.WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", utilsContext.GetRequestID(ctx))
}
