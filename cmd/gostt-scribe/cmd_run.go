package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chaz8081/gostt-scribe/internal/export"
	"github.com/chaz8081/gostt-scribe/internal/session"
	"github.com/chaz8081/gostt-scribe/internal/worker"
)

// interruptedError reports a run stopped by a signal before every file was
// processed. The partial transcript is still written.
type interruptedError struct {
	Completed int
	Total     int
	Err       error
}

func (e *interruptedError) Error() string {
	return fmt.Sprintf("interrupted after %d of %d file(s): %v", e.Completed, e.Total, e.Err)
}

func (e *interruptedError) Unwrap() error { return e.Err }

// fileFailureError reports a batch that ran to completion with some files
// failing. The transcript is still written.
type fileFailureError struct {
	Failed int
	Total  int
}

func (e *fileFailureError) Error() string {
	return fmt.Sprintf("%d of %d file(s) could not be transcribed", e.Failed, e.Total)
}

type runOptions struct {
	output string
	stdout bool
}

func newRunCommand(opts *globalOptions) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Transcribe files without the UI",
		Long: `Transcribe the given files in order and save one transcript.

Each file becomes a numbered section. Files that fail are noted in the
transcript and the run continues. Ctrl+C stops after the file in progress
and still saves what was transcribed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(cmd, opts, ro, args)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "transcript path (default: last file name + save.suffix, in the working directory)")
	cmd.Flags().BoolVar(&ro.stdout, "stdout", false, "print the transcript instead of saving it")
	cmd.MarkFlagsMutuallyExclusive("output", "stdout")

	return cmd
}

func runE(cmd *cobra.Command, opts *globalOptions, ro *runOptions, args []string) error {
	a, err := setup(opts, cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := a.provision(prompter(opts))
	if err != nil {
		return err
	}
	p, err := a.newPipeline(h, false)
	if err != nil {
		return err
	}
	defer p.Close(a.log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runBatch(ctx, batchJob{
		worker:   p.worker,
		exporter: p.exporter,
		paths:    args,
		output:   ro.output,
		stdout:   ro.stdout,
		suffix:   a.cfg.Save.Suffix,
		out:      cmd.OutOrStdout(),
		log:      a.log,
	})
}

// batchJob is one headless run.
type batchJob struct {
	worker   *worker.Worker
	exporter *export.Exporter
	paths    []string
	output   string
	stdout   bool
	suffix   string
	out      io.Writer
	log      zerolog.Logger
}

// runBatch drains the worker on the calling goroutine, then saves or prints
// the transcript.
func runBatch(ctx context.Context, job batchJob) error {
	sess := session.New()
	sess.SetSelection(job.paths)

	updates, err := job.worker.Start(ctx, sess.Selection())
	if err != nil {
		return err
	}

	failed := 0
	var progress worker.Progress
	for u := range updates {
		sess.AppendEntry(u.Entry)
		progress = u.Progress
		if u.Entry.Failed() {
			failed++
		}
		job.log.Info().
			Int("completed", u.Progress.Completed).
			Int("total", u.Progress.Total).
			Str("file", u.Entry.Path).
			Bool("failed", u.Entry.Failed()).
			Msg("progress")
	}

	var interrupted error
	if err := job.worker.Err(); errors.Is(err, context.Canceled) {
		job.log.Warn().Int("completed", progress.Completed).Int("total", len(job.paths)).Msg("run interrupted, keeping partial transcript")
		interrupted = &interruptedError{Completed: progress.Completed, Total: len(job.paths), Err: err}
	}

	if job.stdout {
		if text := strings.TrimSpace(sess.Text()); text != "" {
			fmt.Fprintln(job.out, text)
		}
	} else {
		path := job.output
		if path == "" {
			path = export.DefaultFilename(sess.LastProcessed(), job.suffix)
		}
		res, err := job.exporter.Save(context.WithoutCancel(ctx), path, sess.Text())
		if interrupted != nil && errors.Is(err, &export.SaveError{Kind: export.NothingToSave}) {
			return interrupted
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(job.out, "Transcript saved to %s (%d bytes)\n", res.Path, res.Bytes)
	}

	if interrupted != nil {
		return interrupted
	}
	if failed > 0 {
		return &fileFailureError{Failed: failed, Total: len(job.paths)}
	}
	return nil
}
