// Package worker runs batches of files through recognition and script
// conversion, one file at a time, off the caller's goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrBatchInFlight is returned when a batch is started while another one is
// still running on the same Worker.
var ErrBatchInFlight = errors.New("worker: a batch is already running")

// Recognizer turns a media file into text. Calls may take as long as the media.
type Recognizer interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Converter rewrites recognized text (script conversion).
type Converter interface {
	Convert(text string) string
}

// Worker drives a Recognizer over a list of files. At most one batch runs at
// a time; the recognizer is never called concurrently.
type Worker struct {
	rec  Recognizer
	conv Converter
	log  zerolog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
	err     error
}

// New creates a Worker.
func New(rec Recognizer, conv Converter, log zerolog.Logger) *Worker {
	return &Worker{rec: rec, conv: conv, log: log}
}

// RunBatch transcribes paths in order on the calling goroutine. For every
// path onEntry receives its Entry, then onProgress the updated count. A
// failing file becomes a failed Entry and the batch moves on. ctx is only
// checked between files; a cancelled batch returns ctx.Err() without
// producing entries for the remaining paths. The worker is released even
// if a callback panics.
func (w *Worker) RunBatch(ctx context.Context, paths []string, onProgress func(completed, total int), onEntry func(Entry)) (err error) {
	if err := w.acquire(); err != nil {
		return err
	}
	defer func() { w.release(err) }()
	return w.run(ctx, append([]string(nil), paths...), onProgress, onEntry)
}

// Start runs a batch on a new goroutine and delivers one Update per file on
// the returned channel, which is closed when the batch ends. The channel is
// buffered for the whole batch so the worker never waits on the consumer.
func (w *Worker) Start(ctx context.Context, paths []string) (<-chan Update, error) {
	if err := w.acquire(); err != nil {
		return nil, err
	}

	snapshot := append([]string(nil), paths...)
	updates := make(chan Update, len(snapshot))

	go func() {
		defer close(updates)
		var last Entry
		err := w.run(ctx, snapshot,
			func(completed, total int) {
				updates <- Update{Entry: last, Progress: Progress{Completed: completed, Total: total}}
			},
			func(e Entry) { last = e },
		)
		w.release(err)
	}()

	return updates, nil
}

// Running reports whether a batch is in flight.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Err returns the result of the most recent finished batch: nil, or the
// context error if it was cancelled.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Wait blocks until the in-flight batch finishes or timeout elapses. It
// reports whether the worker is idle.
func (w *Worker) Wait(timeout time.Duration) bool {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done == nil {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (w *Worker) acquire() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrBatchInFlight
	}
	w.running = true
	w.done = make(chan struct{})
	w.err = nil
	return nil
}

func (w *Worker) release(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	w.err = err
	close(w.done)
	w.done = nil
}

func (w *Worker) run(ctx context.Context, paths []string, onProgress func(int, int), onEntry func(Entry)) error {
	total := len(paths)
	log := w.log.With().Str("batch", uuid.NewString()).Int("total", total).Logger()
	log.Info().Msg("batch started")
	start := time.Now()

	failed := 0
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("completed", i).Msg("batch cancelled")
			return err
		}

		entry := w.process(ctx, i, total, path)
		if entry.Failed() {
			failed++
			log.Warn().Err(entry.Err).Str("file", path).Int("index", i+1).Msg("transcription failed")
		} else {
			log.Info().Str("file", path).Int("index", i+1).Int("chars", len([]rune(entry.Text))).Msg("file transcribed")
		}

		if onEntry != nil {
			onEntry(entry)
		}
		if onProgress != nil {
			onProgress(i+1, total)
		}
	}

	log.Info().Int("failed", failed).Dur("elapsed", time.Since(start).Round(time.Millisecond)).Msg("batch finished")
	return nil
}

// process transcribes one file. Panics inside the recognizer are turned into
// a failed entry like any other error.
func (w *Worker) process(ctx context.Context, index, total int, path string) (entry Entry) {
	entry = Entry{Index: index, Total: total, Path: path}
	defer func() {
		if r := recover(); r != nil {
			entry.Text = ""
			entry.Err = fmt.Errorf("recognizer panic: %v", r)
		}
	}()

	// The file in flight always finishes; cancellation is observed between files.
	text, err := w.rec.Transcribe(context.WithoutCancel(ctx), path)
	if err != nil {
		entry.Err = err
		return entry
	}
	if w.conv != nil {
		text = w.conv.Convert(text)
	}
	entry.Text = text
	return entry
}
