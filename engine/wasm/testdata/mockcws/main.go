//go:build wasip1

// Mock interpreter for testing the runtime without the real one.
//
// go generate ./engine/wasm builds both shapes. By hand, from this
// directory:
//
//	GOOS=wasip1 GOARCH=wasm go build -o ../command.wasm .
//	GOOS=wasip1 GOARCH=wasm go build -tags reactor -buildmode=c-shared -o ../reactor.wasm .
//
// Each source line is one statement:
//
//	print <text>    write text and a newline to stdout
//	warn <text>     write text and a newline to stderr
//	partial <text>  write text to stdout without a newline
//	fail            runtime error (exit 65)
//	syntax          compile error (exit 70), checked before anything runs
//	spin            loop forever
package main

import (
	"fmt"
	"os"
	"strings"
)

const (
	ok           = 0
	runtimeError = 65
	compileError = 70
)

func run(src string) int {
	lines := strings.Split(src, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "syntax" {
			fmt.Fprintln(os.Stderr, "[line 1] Error: unexpected token")
			return compileError
		}
	}

	for _, line := range lines {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch cmd {
		case "print":
			fmt.Println(arg)
		case "warn":
			fmt.Fprintln(os.Stderr, arg)
		case "partial":
			fmt.Print(arg)
		case "fail":
			fmt.Fprintln(os.Stderr, "runtime failure")
			return runtimeError
		case "spin":
			for {
			}
		}
	}
	return ok
}

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage : cws ./my-program.cws")
		os.Exit(64)
	}
	src, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Cannot open the file")
		os.Exit(60)
	}
	os.Exit(run(string(src)))
}
