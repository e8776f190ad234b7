package main

import (
	"github.com/spf13/cobra"

	"github.com/caffeineduck/cwsplay/config"
	"github.com/caffeineduck/cwsplay/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web playground",
		Long: `Start the web playground: an editor, Run and Share buttons and the
transcript of the last run.

Endpoints:
  GET  /              Playground page (opens the program in ?src= if present)
  POST /api/run       Run {"source":"..."} and return the transcript
  GET  /api/run/ws    Run over a websocket, streaming transcript lines
  POST /api/share     Build the share link for {"source":"..."}
  GET  /health        Health check
  GET  /metrics       Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("listen", config.DefaultListen, "Address to listen on")
	cmd.Flags().Bool("no-open", false, "Do not open the page in a browser")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, eng, err := setup(cmd, "")
	if err != nil {
		return err
	}
	defer eng.Close()

	if cmd.Flags().Changed("listen") {
		cfg.Listen, _ = cmd.Flags().GetString("listen")
	}
	if !cmd.Flags().Changed("base-url") && cfg.BaseURL == config.DefaultBaseURL {
		cfg.BaseURL = server.PageURL(cfg.Listen)
	}

	srv, err := server.New(eng,
		server.WithLogger(log),
		server.WithTimeout(cfg.Timeout),
		server.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return err
	}

	if noOpen, _ := cmd.Flags().GetBool("no-open"); !noOpen {
		server.OpenBrowser(server.PageURL(cfg.Listen))
	}
	return srv.ListenAndServe(cmd.Context(), cfg.Listen)
}
