// Package models makes a whisper model available in the local cache,
// extracting it from a bundled zip archive on first run.
package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// Extractor unpacks archive into dir, which already exists and is empty.
type Extractor func(archive, dir string) error

// Handle identifies a provisioned model directory.
type Handle struct {
	Name string
	Dir  string
}

// ModelFile returns the ggml weights file inside the model directory.
// whisper.cpp loads a single file; the first *.bin in lexical order wins.
func (h Handle) ModelFile() (string, error) {
	matches, err := filepath.Glob(filepath.Join(h.Dir, "*.bin"))
	if err != nil {
		return "", fmt.Errorf("models: searching %s: %w", h.Dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("models: no *.bin weights in %s", h.Dir)
	}
	return matches[0], nil
}

// Provisioner ensures models exist under CacheDir.
type Provisioner struct {
	CacheDir   string
	ArchiveDir string
	Prompt     Prompter
	Extract    Extractor // defaults to ExtractZip
	Log        zerolog.Logger
}

// Ensure returns a handle for name, extracting <ArchiveDir>/<name>.zip into
// <CacheDir>/<name> with the operator's consent if the directory is absent.
// Failures are *ProvisionError.
func (p *Provisioner) Ensure(name string) (Handle, error) {
	dir := filepath.Join(p.CacheDir, name)
	h := Handle{Name: name, Dir: dir}

	if ready(dir) {
		p.Log.Debug().Str("model", name).Str("dir", dir).Msg("model already cached")
		return h, nil
	}

	archive := filepath.Join(p.ArchiveDir, name+".zip")
	question := fmt.Sprintf("Model %q was not found in %s. Extract it from %s?", name, p.CacheDir, archive)
	if p.Prompt == nil {
		return Handle{}, &ProvisionError{Kind: UserDeclined, Model: name, Path: dir}
	}
	ok, err := p.Prompt.Confirm(question)
	if err != nil {
		return Handle{}, &ProvisionError{Kind: UserDeclined, Model: name, Path: dir, Err: err}
	}
	if !ok {
		return Handle{}, &ProvisionError{Kind: UserDeclined, Model: name, Path: dir}
	}

	if info, err := os.Stat(archive); err != nil || info.IsDir() {
		return Handle{}, &ProvisionError{Kind: ArchiveMissing, Model: name, Path: archive, Err: err}
	}

	p.Log.Info().Str("model", name).Str("archive", archive).Str("dir", dir).Msg("extracting model")
	if err := p.install(archive, dir, name); err != nil {
		return Handle{}, &ProvisionError{Kind: ExtractionFailed, Model: name, Path: archive, Err: err}
	}
	p.Log.Info().Str("model", name).Msg("model extracted")

	return h, nil
}

// install extracts into a temp dir beside dir and renames it into place, so a
// failed run never leaves a half-populated dir that ready would accept.
func (p *Provisioner) install(archive, dir, name string) error {
	if err := os.MkdirAll(p.CacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.MkdirTemp(p.CacheDir, "."+name+"-extract-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	extract := p.Extract
	if extract == nil {
		extract = ExtractZip
	}
	if err := extract(archive, tmp); err != nil {
		return err
	}

	src, err := contentRoot(tmp, name)
	if err != nil {
		return err
	}

	// An empty leftover dir from an older run is replaced.
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale %s: %w", dir, err)
	}
	if err := os.Rename(src, dir); err != nil {
		return fmt.Errorf("moving model into place: %w", err)
	}
	return nil
}

// ready reports whether dir exists, is a directory, and has at least one entry.
func ready(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// contentRoot flattens archives whose only top-level entry is a <name>/ folder.
func contentRoot(tmp, name string) (string, error) {
	entries, err := os.ReadDir(tmp)
	if err != nil {
		return "", fmt.Errorf("reading extracted files: %w", err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("archive is empty")
	}
	if len(entries) == 1 && entries[0].IsDir() && strings.EqualFold(entries[0].Name(), name) {
		return filepath.Join(tmp, entries[0].Name()), nil
	}
	return tmp, nil
}
