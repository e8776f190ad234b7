package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/cwsplay/internal/fetch"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download the interpreter module",
		Long: `Download the interpreter wasm module to the path named by --output, or by
the module setting of the config file.

An existing file is kept unless --force is given. With --sha256 the download
is verified before it replaces anything.`,
		Args: cobra.ExactArgs(1),
		RunE: runFetch,
	}
	cmd.Flags().StringP("output", "o", "", "Where to write the module (default: module from config)")
	cmd.Flags().String("sha256", "", "Expected SHA-256 of the module")
	cmd.Flags().Bool("force", false, "Replace an existing module")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.Module
	}
	if output == "" {
		return errors.New("output required: use --output or set module in the config file")
	}

	sum, _ := cmd.Flags().GetString("sha256")
	force, _ := cmd.Flags().GetBool("force")
	return fetch.Module(cmd.Context(), args[0], output, fetch.Options{
		SHA256: sum,
		Force:  force,
		Log:    log,
	})
}
