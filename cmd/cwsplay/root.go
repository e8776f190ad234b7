package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/cwsplay/config"
	"github.com/caffeineduck/cwsplay/engine"
)

// errRunFailed ends the process with a non-zero status after a run whose
// failure is already on stderr.
var errRunFailed = errors.New("run failed")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cwsplay [file]",
		Short: "Playground for a WebAssembly-compiled interpreter",
		Long: `cwsplay - Edit, run and share programs for an interpreter compiled to WebAssembly.

Programs run in a wazero sandbox (or in the embedded JavaScript engine with
--engine js). Output from the interpreter is collected into a transcript:
normal output on stdout, errors on stderr. Any program can be turned into a
link that carries its source in the src query parameter.

Settings are read from cwsplay.yaml in the working directory, or from the
file named by --config. Flags override the file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runRun,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (default: ./"+config.FileName+")")
	flags.StringP("engine", "e", "", "Engine: wasm, js (default: from file extension or config)")
	flags.String("module", "", "Interpreter wasm module")
	flags.Bool("no-cache", false, "Disable compilation cache")
	flags.Duration("timeout", config.DefaultTimeout, "Upper bound on one run (0 disables)")
	flags.String("memory", config.DefaultMemory, "Interpreter memory limit: 1MB, 64MB, 256MB, 1GB")
	flags.String("base-url", config.DefaultBaseURL, "Page address share links are built on")
	flags.String("log-level", config.DefaultLevel, "Log level: debug, info, warn, error")

	addRunFlags(root)

	root.AddCommand(
		newRunCmd(),
		newReplCmd(),
		newServeCmd(),
		newShareCmd(),
		newOpenCmd(),
		newTUICmd(),
		newFetchCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	if path == "" {
		path = config.FileName
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if flags.Changed("engine") {
		cfg.Engine, _ = flags.GetString("engine")
	}
	if flags.Changed("module") {
		cfg.Module, _ = flags.GetString("module")
	}
	if flags.Changed("no-cache") {
		cfg.NoCache, _ = flags.GetBool("no-cache")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("memory") {
		cfg.Memory, _ = flags.GetString("memory")
	}
	if flags.Changed("base-url") {
		cfg.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	return cfg, cfg.Validate()
}

// setup loads the configuration, builds the logger and opens the engine.
// filename, when set, picks the engine by extension unless --engine or the
// config names one.
func setup(cmd *cobra.Command, filename string) (config.Config, *logrus.Logger, engine.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, err
	}

	log, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return cfg, nil, nil, err
	}

	explicit := ""
	if cmd.Flags().Changed("engine") {
		explicit = cfg.Engine
	}
	cfg.Engine, err = engine.Resolve(explicit, filename, cfg.Engine)
	if err != nil {
		return cfg, log, nil, err
	}

	eng, err := engine.Open(cmd.Context(), cfg, log)
	if err != nil {
		return cfg, log, nil, err
	}
	return cfg, log, eng, nil
}
