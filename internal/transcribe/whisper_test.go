package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/gostt-scribe/internal/executor"
)

// whisperModelPath resolves a ggml model for integration tests: $GOSTT_TEST_MODEL,
// or models/ggml-base.en.bin under the project root.
func whisperModelPath(t *testing.T) string {
	t.Helper()
	path := os.Getenv("GOSTT_TEST_MODEL")
	if path == "" {
		path = filepath.Join("..", "..", "models", "ggml-base.en.bin")
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("model not found at %s (set GOSTT_TEST_MODEL): %v", path, err)
	}
	return path
}

func newTestTranscriber(t *testing.T) *WhisperTranscriber {
	t.Helper()
	path := whisperModelPath(t)
	audio := NewAudioLoader(executor.New(), "ffmpeg", zerolog.Nop())
	tr, err := NewWhisperTranscriber(path, audio, WhisperOptions{Language: "en"}, zerolog.Nop())
	require.NoError(t, err, "NewWhisperTranscriber(%q)", path)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestNewWhisperTranscriberBadPath(t *testing.T) {
	audio := NewAudioLoader(executor.New(), "ffmpeg", zerolog.Nop())
	_, err := NewWhisperTranscriber("/nonexistent/model.bin", audio, WhisperOptions{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestWhisperTranscribeJFK(t *testing.T) {
	tr := newTestTranscriber(t)
	wavPath := filepath.Join("..", "..", "third_party", "whisper.cpp", "samples", "jfk.wav")
	if _, err := os.Stat(wavPath); err != nil {
		t.Skipf("JFK sample not found at %s: %v", wavPath, err)
	}

	text, err := tr.Transcribe(context.Background(), wavPath)
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(text), "ask not what your country")
}

func TestWhisperProcessSilence(t *testing.T) {
	tr := newTestTranscriber(t)

	// Silence should not error; whisper may hallucinate, so the text is not checked.
	_, err := tr.Process(make([]float32, SampleRate))
	require.NoError(t, err)
}

func TestWhisperTranscribeMissingFile(t *testing.T) {
	tr := newTestTranscriber(t)

	_, err := tr.Transcribe(context.Background(), "/nonexistent/audio.wav")
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestWhisperProcessAfterClose(t *testing.T) {
	tr := newTestTranscriber(t)
	require.NoError(t, tr.Close())
	_, err := tr.Process(make([]float32, 10))
	assert.ErrorIs(t, err, ErrEngineFailure)
}
