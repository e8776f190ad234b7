// Package engine selects and opens the interpreter a playground runs on.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/config"
	"github.com/caffeineduck/cwsplay/engine/javascript"
	"github.com/caffeineduck/cwsplay/engine/wasm"
)

// Engine is an interpreter that owns resources.
type Engine interface {
	bridge.Interpreter
	Name() string
	Close() error
}

var (
	_ Engine = (*wasm.Runtime)(nil)
	_ Engine = (*javascript.Engine)(nil)
)

// Persistent returns an interpreter on eng that keeps program state from one
// run to the next, and whether eng supports that. Wasm modules reset their
// interpreter on every call, so for them eng itself is returned.
func Persistent(eng Engine) (bridge.Interpreter, bool) {
	if js, ok := eng.(*javascript.Engine); ok {
		return js.NewSession(), true
	}
	return eng, false
}

// Resolve returns the canonical engine name. An explicit name wins; without
// one the file extension decides, and fallback is used last.
func Resolve(name, filename, fallback string) (string, error) {
	if name == "" && filename != "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".cws":
			name = config.EngineWasm
		case ".js", ".mjs":
			name = config.EngineJavaScript
		}
	}
	if name == "" {
		name = fallback
	}

	switch strings.ToLower(name) {
	case "wasm", "cws":
		return config.EngineWasm, nil
	case "js", "javascript":
		return config.EngineJavaScript, nil
	case "":
		return "", fmt.Errorf("engine required: use --engine wasm or --engine js")
	default:
		return "", fmt.Errorf("unknown engine %q: use wasm or js", name)
	}
}

// Open creates the engine named by cfg.Engine.
func Open(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (Engine, error) {
	name, err := Resolve(cfg.Engine, "", config.DefaultEngine)
	if err != nil {
		return nil, err
	}

	if name == config.EngineJavaScript {
		return javascript.New(), nil
	}

	if cfg.Module == "" {
		return nil, fmt.Errorf("interpreter module required: set module in %s or use --module", config.FileName)
	}

	opts := []wasm.Option{
		wasm.WithName(strings.TrimSuffix(filepath.Base(cfg.Module), filepath.Ext(cfg.Module))),
		wasm.WithEntry(cfg.Entry),
		wasm.WithLogger(log),
	}
	if !cfg.NoCache {
		opts = append(opts, wasm.WithDiskCache(cfg.CacheDir))
	}
	if cfg.Memory != "" {
		bytes, err := config.ParseMemory(cfg.Memory)
		if err != nil {
			return nil, err
		}
		opts = append(opts, wasm.WithMemoryLimit(wasm.PagesFor(bytes)))
	}

	rt, err := wasm.Load(ctx, cfg.Module, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Module, err)
	}
	return rt, nil
}
