// Package wasm runs an interpreter compiled to WebAssembly inside a wazero
// sandbox.
//
// # Overview
//
// A [Runtime] compiles the interpreter module once and instantiates it fresh
// for every run, so no interpreter state leaks from one program into the
// next. Guest stdout is reported as normal output and guest stderr as
// diagnostic output, one event per line.
//
// # Module shapes
//
// Two module shapes are supported and detected from the exports:
//
//   - Reactor: the module exports the entry point (RUN_SOURCE by default)
//     plus malloc and free. The source is copied into guest memory as a
//     NUL-terminated string and its address is passed to the entry point.
//   - Command: the module exports _start. The source is mounted read-only at
//     /src/main.cws and its path is passed as the first argument. Exit code
//     65 reports a runtime error and 70 a compile error.
//
// # Basic Usage
//
//	rt, err := wasm.Load(ctx, "cws.wasm", wasm.WithDiskCache())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	b := bridge.New(rt, transcript.New())
//	b.Execute(ctx, `tampil("halo");`)
package wasm
