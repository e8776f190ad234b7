package wasm

// Mock interpreter modules used by the runtime tests.
//go:generate env GOOS=wasip1 GOARCH=wasm go build -C testdata/mockcws -o ../command.wasm .
//go:generate env GOOS=wasip1 GOARCH=wasm go build -C testdata/mockcws -tags reactor -buildmode=c-shared -o ../reactor.wasm .
