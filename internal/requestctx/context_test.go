package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetCallerID_and_CallerID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CallerID(ctx))

	ctx2 := SetCallerID(ctx, "agent-7")
	assert.Equal(t, "agent-7", CallerID(ctx2))
	assert.Empty(t, CallerID(ctx))

	ctx3 := SetCallerID(ctx2, "other")
	assert.Equal(t, "other", CallerID(ctx3))
	assert.Equal(t, "agent-7", CallerID(ctx2))
}
