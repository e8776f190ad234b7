package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/config"
	"github.com/caffeineduck/cwsplay/internal/tui"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [link|file]",
		Short: "Open the playground in the terminal",
		Long: `Open the terminal playground: an editor above the transcript of the last
run.

Keys:
  ctrl+r         Run the program
  ctrl+s         Copy a share link to the clipboard
  pgup/pgdown    Scroll the transcript
  esc, ctrl+c    Quit

The argument is either a share link, whose program is loaded, or a file.
Without one the default program is loaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTUI,
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	var location, source, filename string
	if len(args) > 0 {
		if isLink(args[0]) {
			location = args[0]
		} else {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			filename, source = args[0], string(data)
		}
	}

	cfg, log, eng, err := setup(cmd, filename)
	if err != nil {
		return err
	}
	defer eng.Close()

	if location == "" {
		location = cfg.BaseURL
	}

	// The alternate screen owns the terminal, so only warnings get through.
	if !cmd.Flags().Changed("log-level") && cfg.LogLevel == config.DefaultLevel {
		log.SetLevel(logrus.WarnLevel)
	}

	return tui.Run(cmd.Context(), eng, tui.Options{
		Location: location,
		Source:   source,
		Bridge:   []bridge.Option{bridge.WithTimeout(cfg.Timeout), bridge.WithLogger(log)},
		Log:      log,
	})
}

func isLink(arg string) bool {
	return strings.Contains(arg, "://") || strings.HasPrefix(arg, "?")
}
