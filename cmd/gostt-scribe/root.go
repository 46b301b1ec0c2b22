package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	model      string
	logLevel   string
	yes        bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "gostt-scribe",
		Short: "Batch speech-to-text for audio and video files",
		Long: `gostt-scribe transcribes audio and video files with a local whisper.cpp
model, converts the text to Simplified Chinese script, and lets you review,
edit and save the result.

Without a subcommand it opens the interactive terminal UI.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return uiE(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default: ~/.config/gostt-scribe/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.model, "model", "", "whisper model name, overrides the config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error, overrides the config file")
	cmd.PersistentFlags().BoolVarP(&opts.yes, "yes", "y", false, "extract a missing model without asking")

	cmd.AddCommand(newUICommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newModelCommand(opts))
	cmd.AddCommand(newConfigCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
