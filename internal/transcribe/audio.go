package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/chaz8081/gostt-scribe/internal/executor"
)

// SampleRate is the only rate whisper.cpp accepts.
const SampleRate = 16000

// AudioLoader turns media files into mono 16kHz float32 samples. WAV files
// already in that shape are decoded directly; anything else goes through ffmpeg.
type AudioLoader struct {
	Exec   executor.Executor
	FFmpeg string // ffmpeg binary name or path
	Log    zerolog.Logger
}

// NewAudioLoader creates an AudioLoader using the given ffmpeg binary.
func NewAudioLoader(exec executor.Executor, ffmpeg string, log zerolog.Logger) *AudioLoader {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &AudioLoader{Exec: exec, FFmpeg: ffmpeg, Log: log}
}

// Load returns the samples of the media file at path.
func (l *AudioLoader) Load(ctx context.Context, path string) ([]float32, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, err := decodeWAV(path)
		if err == nil {
			return samples, nil
		}
		l.Log.Debug().Err(err).Str("file", path).Msg("wav not directly usable, converting with ffmpeg")
	}

	return l.convert(ctx, path)
}

// convert runs ffmpeg to produce a 16kHz mono PCM WAV and decodes it.
func (l *AudioLoader) convert(ctx context.Context, path string) ([]float32, error) {
	if _, err := l.Exec.LookPath(l.FFmpeg); err != nil {
		return nil, fmt.Errorf("%w: %s needs ffmpeg, which was not found: %v", ErrUnsupportedFormat, filepath.Ext(path), err)
	}

	tmp, err := os.CreateTemp("", "gostt-scribe-*.wav")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp file: %v", ErrUnreadable, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	// -vn: drop video, -ar/-ac: whisper input shape, pcm_s16le: plain WAV
	args := []string{
		"-nostdin",
		"-i", path,
		"-vn",
		"-ar", fmt.Sprint(SampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		tmpPath,
	}

	l.Log.Debug().Str("file", path).Msg("extracting audio with ffmpeg")
	if _, err := l.Exec.Execute(ctx, l.FFmpeg, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: ffmpeg could not decode %s: %v", ErrUnsupportedFormat, filepath.Base(path), err)
	}

	samples, err := decodeWAV(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding ffmpeg output: %v", ErrUnsupportedFormat, err)
	}
	return samples, nil
}

var errWrongShape = errors.New("wav is not 16kHz mono")

// decodeWAV reads a 16kHz mono PCM WAV and normalizes samples to [-1, 1].
func decodeWAV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if dec.SampleRate != SampleRate || dec.NumChans != 1 {
		return nil, fmt.Errorf("%w: %dHz, %dch", errWrongShape, dec.SampleRate, dec.NumChans)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	if depth < 16 || depth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", depth)
	}
	scale := float32(int64(1) << (depth - 1))

	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) / scale
	}
	return samples, nil
}
