package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/internal/watch"
	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/transcript"
)

// errNoInput means neither a file, -c nor piped stdin supplied a program.
var errNoInput = errors.New("no input")

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a program",
		Long: `Run a program and print its transcript.

Code can be provided via:
  - File argument: cwsplay run hello.cws
  - Inline flag: cwsplay run -c 'tampil("Halo");'
  - Stdin: echo 'tampil("Halo");' | cwsplay run

Normal output goes to stdout and interpreter errors to stderr. The exit
status is 1 when the run failed. With --watch the file is run again every
time it is saved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "Code to execute")
	cmd.Flags().BoolP("watch", "w", false, "Run again whenever the file changes")
}

func runRun(cmd *cobra.Command, args []string) error {
	source, filename, err := readSource(cmd, args)
	if errors.Is(err, errNoInput) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}

	watching, _ := cmd.Flags().GetBool("watch")
	if watching && filename == "" {
		return errors.New("--watch needs a file argument")
	}

	cfg, log, eng, err := setup(cmd, filename)
	if err != nil {
		return err
	}
	defer eng.Close()

	sink := transcript.New()
	cancel := sink.Observe(printer(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	defer cancel()

	text := playground.NewText(source)
	ctl := playground.New(text,
		bridge.New(eng, sink, bridge.WithTimeout(cfg.Timeout), bridge.WithLogger(log)),
		playground.WithLogger(log),
	)

	stats := ctl.Run(cmd.Context())
	if !watching {
		if stats.Failed {
			return errRunFailed
		}
		return nil
	}

	return watchAndRun(cmd.Context(), filename, text, ctl, log)
}

// watchAndRun reruns the program each time filename is saved, until ctx is
// done.
func watchAndRun(ctx context.Context, filename string, text *playground.Text, ctl *playground.Controller, log logrus.FieldLogger) error {
	log.WithField("file", filename).Info("watching for changes")
	return watch.File(ctx, filename, watch.DefaultDelay, func() {
		data, err := os.ReadFile(filename)
		if err != nil {
			log.WithError(err).Warn("reload failed")
			return
		}
		text.SetValue(string(data), playground.CursorEnd)
		ctl.Run(ctx)
	}, log)
}

// readSource returns the program from -c, the file argument or piped stdin,
// in that order. filename is empty unless the program came from a file.
func readSource(cmd *cobra.Command, args []string) (source, filename string, err error) {
	code, _ := cmd.Flags().GetString("code")

	switch {
	case code != "":
		return code, "", nil
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), args[0], nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", "", errNoInput
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", "", err
	}
	if len(data) == 0 {
		return "", "", errNoInput
	}
	return string(data), "", nil
}

// printer writes normal transcript lines to out and diagnostics to errOut.
func printer(out, errOut io.Writer) transcript.Observer {
	return transcript.ObserverFuncs{
		OnAppend: func(e transcript.Entry) {
			w := out
			if e.Channel == transcript.Diagnostic {
				w = errOut
			}
			fmt.Fprintln(w, e.Text)
		},
	}
}
