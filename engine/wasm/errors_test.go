package wasm

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tetratelabs/wazero/sys"
)

func TestExitError(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, exitError(ctx, nil))
	assert.NoError(t, exitError(ctx, sys.NewExitError(0)))
	assert.ErrorIs(t, exitError(ctx, sys.NewExitError(65)), ErrRuntime)
	assert.ErrorIs(t, exitError(ctx, sys.NewExitError(70)), ErrCompile)
	assert.EqualError(t, exitError(ctx, sys.NewExitError(64)), "exit status 64")
	assert.EqualError(t, exitError(ctx, errors.New("unreachable")), "trap: unreachable")
}

func TestExitErrorPrefersContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exitError(ctx, sys.NewExitError(sys.ExitCodeContextCanceled))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPagesFor(t *testing.T) {
	assert.Equal(t, uint32(0), PagesFor(0))
	assert.Equal(t, uint32(1), PagesFor(1))
	assert.Equal(t, MemoryLimit64MB, PagesFor(64<<20))
	assert.Equal(t, MemoryLimit256MB, PagesFor(256<<20))
	assert.Equal(t, uint32(65536), PagesFor(1<<40))
	assert.Equal(t, uint32(65536), PagesFor(math.MaxUint64))
}
