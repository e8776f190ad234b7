// Package javascript runs playground programs on the Goja JavaScript
// interpreter. It needs no external module, which makes it the engine of
// choice for demos and tests.
package javascript

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/caffeineduck/cwsplay/bridge"
)

// Name is the engine name used in configuration.
const Name = "javascript"

// ScriptError is an exception thrown by the program.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return e.Message
}

// Engine runs each program in a fresh Goja runtime.
type Engine struct{}

// New returns an Engine.
func New() *Engine {
	return &Engine{}
}

// Name returns "javascript".
func (e *Engine) Name() string {
	return Name
}

// Close is a no-op; runtimes do not outlive a run.
func (e *Engine) Close() error {
	return nil
}

// RunSource runs text on a runtime of its own. print, console.log and
// console.info write normal output; console.error and console.warn write
// diagnostic output. Each argument becomes one part of the output event.
func (e *Engine) RunSource(ctx context.Context, text string, cb bridge.Callbacks) error {
	return NewSession().RunSource(ctx, text, cb)
}

// NewSession returns a Session that keeps program state across runs.
func (e *Engine) NewSession() *Session {
	return NewSession()
}

// Session is one Goja runtime reused across runs, so globals declared by
// one program are visible to the next. Runs are serialized.
type Session struct {
	mu sync.Mutex
	vm *goja.Runtime
	cb bridge.Callbacks
}

// NewSession returns a Session with print and console installed.
func NewSession() *Session {
	s := &Session{vm: goja.New()}
	s.vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	normal := func(parts ...string) { s.cb.OnNormalOutput(parts...) }
	diagnostic := func(parts ...string) { s.cb.OnDiagnosticOutput(parts...) }
	if err := register(s.vm, normal, diagnostic); err != nil {
		// Registration errors are programming bugs, not script errors
		panic("failed to register JS API: " + err.Error())
	}
	return s
}

// RunSource runs text on the session runtime, writing output to cb.
func (s *Session) RunSource(ctx context.Context, text string, cb bridge.Callbacks) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cb = cb
	defer func() { s.cb = bridge.Callbacks{} }()

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		s.vm.Interrupt("script interrupted")
		close(fired)
	})

	_, err := s.vm.RunString(text)

	if !stop() {
		<-fired
	}
	s.vm.ClearInterrupt()

	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) && ctx.Err() != nil {
		return ctx.Err()
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return &ScriptError{Message: exc.Value().String()}
	}
	return err
}

func register(vm *goja.Runtime, normalOut, diagnosticOut func(parts ...string)) error {
	normal := emitter(normalOut)
	diagnostic := emitter(diagnosticOut)

	if err := vm.Set("print", normal); err != nil {
		return fmt.Errorf("failed to register print: %w", err)
	}

	console := vm.NewObject()
	for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
		"log":   normal,
		"info":  normal,
		"error": diagnostic,
		"warn":  diagnostic,
	} {
		if err := console.Set(name, fn); err != nil {
			return fmt.Errorf("failed to register console.%s: %w", name, err)
		}
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to register console: %w", err)
	}
	return nil
}

func emitter(out func(parts ...string)) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		out(parts...)
		return goja.Undefined()
	}
}
