// Package bridge marshals source text into an embedded interpreter and
// routes the interpreter's output into a transcript.
//
// The bridge is the only place a foreign execution can fail. Whatever goes
// wrong inside the interpreter (a returned error, a panic, a trap, a timeout)
// is appended to the transcript as diagnostic text; nothing propagates to
// the caller.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/caffeineduck/cwsplay/transcript"
)

// Callbacks are the two output slots an interpreter may invoke any number
// of times during a run.
type Callbacks struct {
	OnNormalOutput     func(parts ...string)
	OnDiagnosticOutput func(parts ...string)
}

// Interpreter is the opaque execution engine.
//
// RunSource must invoke every callback for text before it returns: returning
// means all output has been dispatched. An engine that executes
// asynchronously has to block until its output is drained.
type Interpreter interface {
	RunSource(ctx context.Context, text string, cb Callbacks) error
}

// InterpreterFunc adapts a function to Interpreter.
type InterpreterFunc func(ctx context.Context, text string, cb Callbacks) error

func (f InterpreterFunc) RunSource(ctx context.Context, text string, cb Callbacks) error {
	return f(ctx, text, cb)
}

// Stats describes one Execute call. Failures are already in the transcript;
// Failed is only bookkeeping for logs and metrics.
type Stats struct {
	Executed bool
	Events   int
	Failed   bool
	Duration time.Duration
}

// Bridge owns the foreign call into an Interpreter.
type Bridge struct {
	interp  Interpreter
	sink    *transcript.Sink
	timeout time.Duration
	log     logrus.FieldLogger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTimeout bounds a single run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.timeout = d
	}
}

// WithLogger sets the logger used for run outcomes. Every transcript line is
// mirrored at debug level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Bridge) {
		b.log = l
	}
}

// New returns a Bridge that writes into sink.
func New(interp Interpreter, sink *transcript.Sink, opts ...Option) *Bridge {
	b := &Bridge{
		interp:  interp,
		sink:    sink,
		timeout: 30 * time.Second,
		log:     discardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Sink returns the transcript the bridge writes into.
func (b *Bridge) Sink() *transcript.Sink {
	return b.sink
}

// Execute runs source and returns after all of its output is in the
// transcript. Leading and trailing whitespace is stripped first; empty input
// does not reach the interpreter.
//
// Output is tagged with the transcript generation current at entry, so lines
// delivered after a later Clear are discarded.
func (b *Bridge) Execute(ctx context.Context, source string) Stats {
	text := strings.TrimSpace(source)
	if text == "" {
		return Stats{}
	}

	start := time.Now()
	gen := b.sink.Generation()

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	var (
		mu     sync.Mutex
		events int
	)
	emit := func(ch transcript.Channel, parts []string) {
		mu.Lock()
		defer mu.Unlock()
		ev := transcript.OutputEvent{Channel: ch, Parts: append([]string(nil), parts...)}
		if b.sink.AppendAt(gen, ev) {
			events++
			b.log.WithField("channel", ch.String()).Debug(ev.Line())
		}
	}

	cb := Callbacks{
		OnNormalOutput:     func(parts ...string) { emit(transcript.Normal, parts) },
		OnDiagnosticOutput: func(parts ...string) { emit(transcript.Diagnostic, parts) },
	}

	err := b.call(ctx, text, cb)
	if err != nil {
		cb.OnDiagnosticOutput(describe(ctx, err, b.timeout))
	}

	stats := Stats{
		Executed: true,
		Failed:   err != nil,
		Duration: time.Since(start),
	}
	mu.Lock()
	stats.Events = events
	mu.Unlock()

	entry := b.log.WithFields(logrus.Fields{
		"events":   stats.Events,
		"duration": stats.Duration,
	})
	if err != nil {
		entry.WithError(err).Info("run failed")
	} else {
		entry.Debug("run finished")
	}
	return stats
}

// call shields the host from panics raised inside the interpreter.
func (b *Bridge) call(ctx context.Context, text string, cb Callbacks) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return b.interp.RunSource(ctx, text, cb)
}

// PanicError wraps a value recovered from a panicking interpreter.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func describe(ctx context.Context, err error, timeout time.Duration) string {
	var p *PanicError
	switch {
	case errors.As(err, &p):
		return "error: " + p.Error()
	case timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Sprintf("error: timeout after %v", timeout)
	case ctx.Err() != nil:
		return "error: " + ctx.Err().Error()
	default:
		return "error: " + err.Error()
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
