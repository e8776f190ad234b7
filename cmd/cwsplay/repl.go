package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/engine"
	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/transcript"
)

const replPrompt = "> "

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Read, run and print one line at a time",
		Long: `Start an interactive session that runs each line as its own program.

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)

With --engine js, variables and functions declared on one line stay
defined for the next. A wasm interpreter resets on every call, so there
each line is a program of its own and nothing carries over.

An empty line, 'exit', 'quit' or Ctrl+D ends the session.`,
		Args: cobra.NoArgs,
		RunE: runRepl,
	}
	cmd.Flags().String("history", "", "History file path (default: ~/.cwsplay_history)")
	return cmd
}

func runRepl(cmd *cobra.Command, args []string) error {
	historyFile, _ := cmd.Flags().GetString("history")
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".cwsplay_history")
	}

	cfg, log, eng, err := setup(cmd, "")
	if err != nil {
		return err
	}
	defer eng.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            replPrompt,
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	sink := transcript.New()
	cancel := sink.Observe(printer(rl.Stdout(), rl.Stderr()))
	defer cancel()

	interp, persistent := engine.Persistent(eng)
	text := playground.NewText("")
	ctl := playground.New(text,
		bridge.New(interp, sink, bridge.WithTimeout(cfg.Timeout), bridge.WithLogger(log)),
		playground.WithLogger(log),
	)

	fmt.Fprintf(rl.Stderr(), "cwsplay %s (empty line, 'exit' or Ctrl+D to quit)\n", eng.Name())
	if !persistent {
		fmt.Fprintln(rl.Stderr(), "each line runs on a fresh interpreter; state does not carry over")
	}
	return repl(cmd.Context(), rl, text, ctl)
}

// lineReader is the part of readline the loop needs.
type lineReader interface {
	Readline() (string, error)
}

// repl runs each line read from lines until the session ends.
func repl(ctx context.Context, lines lineReader, text *playground.Text, ctl *playground.Controller) error {
	for {
		line, err := lines.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || line == "exit" || line == "quit" {
			return nil
		}

		text.SetValue(line, playground.CursorEnd)
		ctl.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
	}
}
