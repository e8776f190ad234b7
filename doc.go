// Package cwsplay is a playground for an interpreter compiled to
// WebAssembly: edit a program, run it, read its output, share it as a link.
//
// # Overview
//
// The interpreter runs inside wazero with no capabilities beyond stdout and
// stderr. Each run gets a fresh instance of a module compiled once at
// startup. Output arrives as events on two channels, normal and diagnostic,
// and is collected into a transcript that is cleared when the next run
// starts. Failures of any kind end up in the transcript as diagnostic
// lines; they never reach the host as errors.
//
// # Basic Usage
//
//	rt, _ := wasm.Load(ctx, "cws.wasm", wasm.WithDiskCache())
//	defer rt.Close()
//
//	sink := transcript.New()
//	ctl := playground.New(editor, bridge.New(rt, sink))
//	ctl.Initialize(pageURL) // loads ?src= or the default program
//
//	ctl.Run(ctx)
//	fmt.Print(sink.String())
//
//	link, _ := ctl.Share(ctx) // https://host/?src=...
//
// # Hosts
//
// The cwsplay command wraps the same controller in a command line runner,
// a REPL, a terminal UI and a web page. See [transcript], [bridge],
// [sharelink], [playground] and [engine/wasm] for the API.
package cwsplay
