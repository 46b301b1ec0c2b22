package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-scribe/internal/clipboard"
	"github.com/chaz8081/gostt-scribe/internal/logger"
	"github.com/chaz8081/gostt-scribe/internal/session"
	"github.com/chaz8081/gostt-scribe/internal/tui"
)

const shutdownTimeout = 10 * time.Second

func newUICommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive transcription UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return uiE(cmd, opts)
		},
	}
}

func uiE(cmd *cobra.Command, opts *globalOptions) error {
	a, err := setup(opts, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	printBanner(cmd.OutOrStdout(), a.cfg)

	h, err := a.provision(prompter(opts))
	if err != nil {
		return err
	}
	p, err := a.newPipeline(h, a.cfg.Save.OpenAfterSave)
	if err != nil {
		return err
	}
	defer p.Close(a.log)

	m := tui.New(tui.Deps{
		Worker:          p.worker,
		Session:         session.New(),
		Exporter:        p.exporter,
		Clipboard:       clipboard.System{},
		Extensions:      a.cfg.Selection.Extensions,
		SaveSuffix:      a.cfg.Save.Suffix,
		ShutdownTimeout: shutdownTimeout,
		Log:             logger.Component(a.log, "tui"),
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
