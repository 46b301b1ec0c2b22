// Package transcribe turns media files into text with a local whisper.cpp model.
package transcribe

import (
	"context"
	"errors"
)

// Per-file failure classes. Errors returned by Transcribe wrap one of these.
var (
	ErrUnreadable        = errors.New("file unreadable")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEngineFailure     = errors.New("recognition failed")
)

// Transcriber converts a media file to text.
type Transcriber interface {
	// Transcribe blocks for roughly the duration of the media; never call it
	// from the interactive goroutine.
	Transcribe(ctx context.Context, path string) (string, error)
	// Close releases backend resources.
	Close() error
}
