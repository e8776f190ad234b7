package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/cwsplay/bridge"
	"github.com/caffeineduck/cwsplay/internal/tui"
	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/sharelink"
	"github.com/caffeineduck/cwsplay/transcript"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share [file]",
		Short: "Print a link that opens a program in the playground",
		Long: `Build the share link for a program and copy it to the clipboard.

The link is the --base-url page address with the program in the src query
parameter. It is always printed; --no-copy skips the clipboard.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShare,
	}
	cmd.Flags().StringP("code", "c", "", "Code to share")
	cmd.Flags().Bool("no-copy", false, "Print the link without copying it")
	return cmd
}

func runShare(cmd *cobra.Command, args []string) error {
	source, _, err := readSource(cmd, args)
	if errors.Is(err, errNoInput) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var clip playground.Clipboard = tui.NewClipboard()
	if noCopy, _ := cmd.Flags().GetBool("no-copy"); noCopy {
		clip = playground.ClipboardFunc(func(context.Context, string) error { return nil })
	}

	// Sharing never runs the program, so the bridge has no interpreter.
	ctl := playground.New(playground.NewText(source), bridge.New(nil, transcript.New()),
		playground.WithLocation(cfg.BaseURL),
		playground.WithClipboard(clip),
		playground.WithNotifier(playground.NotifierFunc(func(n playground.Notification) {
			if n.Level == playground.LevelError {
				fmt.Fprintln(cmd.ErrOrStderr(), n.Message)
			}
		})),
	)

	link, err := ctl.Share(cmd.Context())
	if errors.Is(err, playground.ErrEmptySource) {
		return errors.New("nothing to share: the program is empty")
	}
	if link == "" {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <link>",
		Short: "Print the program a share link carries",
		Long: `Print the program carried in the src parameter of a share link. A link
without one prints the default program.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := sharelink.New().Decode(args[0])
			fmt.Fprint(cmd.OutOrStdout(), source)
			if source != "" && source[len(source)-1] != '\n' {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}
