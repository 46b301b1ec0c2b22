package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the whisper model cache",
	}
	cmd.AddCommand(newModelEnsureCommand(opts))
	return cmd
}

func newModelEnsureCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure [NAME]",
		Short: "Extract a model into the cache if it is not there yet",
		Long: `Make sure <cache_dir>/<NAME> holds the model, extracting
<archive_dir>/<NAME>.zip after confirmation when it does not.

NAME defaults to the configured model.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.model = args[0]
			}
			a, err := setup(opts, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := a.provision(prompter(opts))
			if err != nil {
				return err
			}
			file, err := h.ModelFile()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model %s ready: %s\n", h.Name, file)
			return nil
		},
	}
}
