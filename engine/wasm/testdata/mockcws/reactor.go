//go:build wasip1 && reactor

package main

import (
	"bytes"
	"unsafe"
)

// allocs keeps guest buffers reachable until free.
var allocs = map[uint32][]byte{}

//go:wasmexport malloc
func malloc(size uint32) uint32 {
	if size == 0 {
		size = 1
	}
	b := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(&b[0])))
	allocs[ptr] = b
	return ptr
}

//go:wasmexport free
func free(ptr uint32) {
	delete(allocs, ptr)
}

//go:wasmexport RUN_SOURCE
func runSource(ptr uint32) {
	b := allocs[ptr]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	run(string(b))
}
