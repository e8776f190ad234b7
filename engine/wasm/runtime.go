package wasm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/caffeineduck/cwsplay/bridge"
)

// Guest path the source is mounted at in command mode.
const (
	srcMount = "/src"
	srcFile  = "main.cws"
)

// Mode is how a module receives its source.
type Mode int

const (
	ModeReactor Mode = iota
	ModeCommand
)

func (m Mode) String() string {
	if m == ModeCommand {
		return "command"
	}
	return "reactor"
}

// Runtime holds a compiled interpreter module. It is safe for concurrent
// use; every run gets its own instance.
type Runtime struct {
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	compiled wazero.CompiledModule
	mode     Mode
	cfg      runtimeConfig
	mu       sync.RWMutex
	closed   bool
}

// Load reads a module from disk and compiles it.
func Load(ctx context.Context, path string, opts ...Option) (*Runtime, error) {
	module, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}
	return New(ctx, module, opts...)
}

// New compiles module and prepares the host imports it needs.
func New(ctx context.Context, module []byte, opts ...Option) (*Runtime, error) {
	cfg := defaultRuntimeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.log = l
	}

	var cache wazero.CompilationCache
	var err error

	if cfg.diskCache {
		cacheDir := cfg.cacheDir
		if cacheDir == "" {
			cacheDir = defaultCacheDir()
		}
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	r := &Runtime{runtime: rt, cache: cache, cfg: cfg}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		r.Close()
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	start := time.Now()
	compiled, err := rt.CompileModule(ctx, module)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("compile module: %w", err)
	}
	r.compiled = compiled

	r.mode, err = detectMode(compiled, cfg.entry)
	if err != nil {
		r.Close()
		return nil, err
	}

	if err := instantiateEnv(ctx, rt, compiled); err != nil {
		r.Close()
		return nil, err
	}

	cfg.log.WithFields(logrus.Fields{
		"module":   cfg.name,
		"mode":     r.mode.String(),
		"duration": time.Since(start),
	}).Debug("interpreter compiled")

	return r, nil
}

func detectMode(compiled wazero.CompiledModule, entry string) (Mode, error) {
	exports := compiled.ExportedFunctions()
	if _, ok := exports[entry]; ok {
		for _, fn := range []string{"malloc", "free"} {
			if _, ok := exports[fn]; !ok {
				return 0, fmt.Errorf("module exports %s but not %s", entry, fn)
			}
		}
		return ModeReactor, nil
	}
	if _, ok := exports["_start"]; ok {
		return ModeCommand, nil
	}
	return 0, fmt.Errorf("module exports neither %s nor _start", entry)
}

// instantiateEnv satisfies the emscripten runtime hook some standalone
// builds import. Nothing else from env is supported.
func instantiateEnv(ctx context.Context, rt wazero.Runtime, compiled wazero.CompiledModule) error {
	needed := false
	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		if module != "env" {
			continue
		}
		if name != "emscripten_notify_memory_growth" {
			return fmt.Errorf("unsupported import env.%s", name)
		}
		needed = true
	}
	if !needed {
		return nil
	}

	_, err := rt.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(context.Context, uint32) {}).
		Export("emscripten_notify_memory_growth").
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate env: %w", err)
	}
	return nil
}

// Name returns the program name the module runs under.
func (r *Runtime) Name() string {
	return r.cfg.name
}

// Mode reports how the module receives its source.
func (r *Runtime) Mode() Mode {
	return r.mode
}

// RunSource runs text in a fresh instance. All output has been passed to cb
// by the time it returns.
func (r *Runtime) RunSource(ctx context.Context, text string, cb bridge.Callbacks) error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	stdout, stderr := newOutputPair(cb.OnNormalOutput, cb.OnDiagnosticOutput)
	defer flushOutput(stdout, stderr)

	moduleConfig := wazero.NewModuleConfig().
		WithStdout(stdout).
		WithStderr(stderr).
		WithSysWalltime().
		WithSysNanotime().
		WithName("")

	if r.mode == ModeCommand {
		return r.runCommand(ctx, text, moduleConfig)
	}
	return r.runReactor(ctx, text, moduleConfig)
}

func (r *Runtime) runCommand(ctx context.Context, text string, moduleConfig wazero.ModuleConfig) error {
	dir, err := os.MkdirTemp("", "cwsplay-src-")
	if err != nil {
		return fmt.Errorf("create source dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, srcFile), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write source: %w", err)
	}

	moduleConfig = moduleConfig.
		WithFSConfig(wazero.NewFSConfig().WithReadOnlyDirMount(dir, srcMount)).
		WithArgs(r.cfg.name, srcMount+"/"+srcFile)

	mod, err := r.runtime.InstantiateModule(ctx, r.compiled, moduleConfig)
	if mod != nil {
		defer mod.Close(context.Background())
	}
	return exitError(ctx, err)
}

func (r *Runtime) runReactor(ctx context.Context, text string, moduleConfig wazero.ModuleConfig) error {
	moduleConfig = moduleConfig.WithStartFunctions("_initialize")

	mod, err := r.runtime.InstantiateModule(ctx, r.compiled, moduleConfig)
	if err != nil {
		return exitError(ctx, err)
	}
	defer mod.Close(context.Background())

	ptr, err := writeString(ctx, mod, text)
	if err != nil {
		return exitError(ctx, err)
	}

	_, callErr := mod.ExportedFunction(r.cfg.entry).Call(ctx, uint64(ptr))
	if err := exitError(ctx, callErr); err != nil {
		return err
	}

	if _, err := mod.ExportedFunction("free").Call(ctx, uint64(ptr)); err != nil {
		return exitError(ctx, err)
	}
	return nil
}

// writeString copies s into guest memory as a NUL-terminated string.
func writeString(ctx context.Context, mod api.Module, s string) (uint32, error) {
	buf := make([]byte, len(s)+1)
	copy(buf, s)

	res, err := mod.ExportedFunction("malloc").Call(ctx, uint64(len(buf)))
	if err != nil {
		return 0, err
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, errors.New("guest out of memory")
	}
	if !mod.Memory().Write(ptr, buf) {
		return 0, fmt.Errorf("write source: %d bytes at %#x out of range", len(buf), ptr)
	}
	return ptr, nil
}

// Close releases all resources held by the Runtime.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	ctx := context.Background()

	var errs []error
	if err := r.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if r.cache != nil {
		if err := r.cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "cwsplay")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "cwsplay")
	}
	return filepath.Join(os.TempDir(), "cwsplay-cache")
}
