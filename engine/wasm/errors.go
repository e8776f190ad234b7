package wasm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/sys"
)

var (
	// ErrCompile is reported when the interpreter rejects the source.
	ErrCompile = errors.New("compile error")
	// ErrRuntime is reported when the program fails while running.
	ErrRuntime = errors.New("runtime error")
	// ErrClosed is returned by runs on a closed Runtime.
	ErrClosed = errors.New("runtime closed")
)

// Exit codes used by the interpreter's command-line entry point.
const (
	exitDataErr  = 65
	exitSoftware = 70
)

// exitError maps the outcome of a guest call to the error reported to the
// bridge. A clean exit is not an error.
func exitError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var exit *sys.ExitError
	if !errors.As(err, &exit) {
		return fmt.Errorf("trap: %w", err)
	}
	switch exit.ExitCode() {
	case 0:
		return nil
	case exitDataErr:
		return ErrRuntime
	case exitSoftware:
		return ErrCompile
	default:
		return fmt.Errorf("exit status %d", exit.ExitCode())
	}
}
