package wasm

import (
	"github.com/sirupsen/logrus"
)

// Option configures a Runtime at creation time.
type Option func(*runtimeConfig)

type runtimeConfig struct {
	name             string
	entry            string
	diskCache        bool
	cacheDir         string
	memoryLimitPages uint32 // Max memory pages (each page = 64KB), 0 = default (4GB)
	log              logrus.FieldLogger
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		name:  "cws",
		entry: DefaultEntry,
	}
}

// DefaultEntry is the export called with the source in reactor mode.
const DefaultEntry = "RUN_SOURCE"

// WithName sets the program name passed as argv[0] in command mode and
// reported by Name.
func WithName(name string) Option {
	return func(c *runtimeConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithEntry sets the exported function a reactor module is called through.
func WithEntry(export string) Option {
	return func(c *runtimeConfig) {
		if export != "" {
			c.entry = export
		}
	}
}

// WithDiskCache enables persistent compilation cache for faster CLI startup.
// Optionally provide a custom directory; otherwise uses ~/.cache/cwsplay or XDG_CACHE_HOME/cwsplay.
//
// Examples:
//
//	wasm.New(ctx, module, wasm.WithDiskCache())            // default dir
//	wasm.New(ctx, module, wasm.WithDiskCache("/tmp/cache")) // custom dir
func WithDiskCache(dir ...string) Option {
	return func(c *runtimeConfig) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithMemoryLimit sets the maximum memory available to the interpreter.
// Each page is 64KB. Examples:
//   - WithMemoryLimit(16) = 1MB max
//   - WithMemoryLimit(1024) = 64MB max
//   - WithMemoryLimit(4096) = 256MB max
//
// Default is 0 (no limit, up to 4GB).
func WithMemoryLimit(pages uint32) Option {
	return func(c *runtimeConfig) {
		c.memoryLimitPages = pages
	}
}

// WithLogger sets the logger used for compilation and instantiation events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *runtimeConfig) {
		c.log = l
	}
}

// Memory limit constants for convenience.
const (
	MemoryLimit1MB   uint32 = 16    // 1 MB
	MemoryLimit16MB  uint32 = 256   // 16 MB
	MemoryLimit64MB  uint32 = 1024  // 64 MB
	MemoryLimit256MB uint32 = 4096  // 256 MB
	MemoryLimit1GB   uint32 = 16384 // 1 GB
)

const pageSize = 64 * 1024

// PagesFor converts a byte count into whole wasm pages, rounding up and
// capping at the 4GB address space.
func PagesFor(bytes uint64) uint32 {
	pages := bytes / pageSize
	if bytes%pageSize != 0 {
		pages++
	}
	if pages > 65536 {
		pages = 65536
	}
	return uint32(pages)
}
