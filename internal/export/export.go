// Package export writes the transcript buffer to disk.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Result describes a completed save.
type Result struct {
	Path    string
	Bytes   int
	OpenErr error // *OpenAfterSaveError, or nil
}

// Exporter saves transcripts and optionally opens them afterwards.
type Exporter struct {
	opener Opener
	log    zerolog.Logger
}

// New creates an Exporter. A nil opener disables open-after-save.
func New(opener Opener, log zerolog.Logger) *Exporter {
	if opener == nil {
		opener = NopOpener{}
	}
	return &Exporter{opener: opener, log: log}
}

// Save writes text, trimmed of leading and trailing whitespace, to path as
// UTF-8. Empty text is rejected before anything touches the filesystem. A
// failure to open the saved file is reported in Result.OpenErr only.
func (x *Exporter) Save(ctx context.Context, path, text string) (Result, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return Result{}, &SaveError{Kind: NothingToSave, Path: path}
	}

	if err := writeAtomic(path, []byte(content)); err != nil {
		x.log.Error().Err(err).Str("path", path).Msg("save failed")
		return Result{}, &SaveError{Kind: WriteFailure, Path: path, Err: err}
	}

	res := Result{Path: path, Bytes: len(content)}
	x.log.Info().Str("path", path).Int("bytes", res.Bytes).Msg("transcript saved")

	if err := x.opener.Open(ctx, path); err != nil {
		res.OpenErr = &OpenAfterSaveError{Path: path, Err: err}
		x.log.Warn().Err(err).Str("path", path).Msg("could not open saved transcript")
	}
	return res, nil
}

// DefaultFilename proposes a save name from the last processed file's base
// name: "talk.mp3" with suffix "_transcript.txt" gives "talk_transcript.txt".
func DefaultFilename(lastProcessed, suffix string) string {
	base := strings.TrimSuffix(lastProcessed, filepath.Ext(lastProcessed))
	if base == "" {
		return "transcript.txt"
	}
	return base + suffix
}

// writeAtomic writes data to a temp file next to path and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving into place: %w", err)
	}
	return nil
}
