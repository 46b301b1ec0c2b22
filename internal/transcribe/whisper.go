package transcribe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"
)

// WhisperOptions tunes each recognition context.
type WhisperOptions struct {
	Language string // "auto" or a whisper language code
	Threads  uint   // 0 keeps the whisper.cpp default
}

// WhisperTranscriber wraps a whisper.cpp model for speech-to-text.
// The model is loaded once; calls are serialized because the underlying
// context is not reentrant.
type WhisperTranscriber struct {
	mu    sync.Mutex
	model whisper.Model
	audio *AudioLoader
	opts  WhisperOptions
	log   zerolog.Logger
}

// NewWhisperTranscriber loads a whisper model from the given path.
// The caller must call Close() when done.
func NewWhisperTranscriber(modelPath string, audio *AudioLoader, opts WhisperOptions, log zerolog.Logger) (*WhisperTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: load whisper model %q: %w", modelPath, err)
	}
	return &WhisperTranscriber{model: model, audio: audio, opts: opts, log: log}, nil
}

// Close releases the whisper model resources.
func (t *WhisperTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model != nil {
		err := t.model.Close()
		t.model = nil
		return err
	}
	return nil
}

// Transcribe loads the media at path as 16kHz mono samples and runs them
// through the model.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	samples, err := t.audio.Load(ctx, path)
	if err != nil {
		return "", err
	}
	t.log.Debug().Str("file", path).Int("samples", len(samples)).Msg("audio loaded")
	return t.Process(samples)
}

// Process transcribes mono 16kHz float32 audio samples to text.
func (t *WhisperTranscriber) Process(samples []float32) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.model == nil {
		return "", fmt.Errorf("%w: model closed", ErrEngineFailure)
	}

	ctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("%w: create context: %v", ErrEngineFailure, err)
	}

	if t.opts.Language != "" {
		if err := ctx.SetLanguage(t.opts.Language); err != nil {
			return "", fmt.Errorf("%w: set language %q: %v", ErrEngineFailure, t.opts.Language, err)
		}
	}
	if t.opts.Threads > 0 {
		ctx.SetThreads(t.opts.Threads)
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("%w: process: %v", ErrEngineFailure, err)
	}

	// Segment text carries its own leading space where the language uses
	// one, so segments are concatenated as-is.
	var text strings.Builder
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: next segment: %v", ErrEngineFailure, err)
		}
		text.WriteString(seg.Text)
	}

	return strings.TrimSpace(text.String()), nil
}
