package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chaz8081/gostt-scribe/internal/config"
	"github.com/chaz8081/gostt-scribe/internal/convert"
	"github.com/chaz8081/gostt-scribe/internal/executor"
	"github.com/chaz8081/gostt-scribe/internal/export"
	"github.com/chaz8081/gostt-scribe/internal/logger"
	"github.com/chaz8081/gostt-scribe/internal/models"
	"github.com/chaz8081/gostt-scribe/internal/transcribe"
	"github.com/chaz8081/gostt-scribe/internal/worker"
)

// app is the loaded configuration and logger shared by the commands.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	closer io.Closer
}

// setup loads and validates the config, applies flag overrides and builds
// the logger. With toFile set and no log_file configured, logs go to
// config.DefaultLogPath so they do not draw over the terminal UI.
func setup(opts *globalOptions, stderr io.Writer, toFile bool) (*app, error) {
	cfg, source, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logFile := cfg.LogFile
	if toFile && logFile == "" {
		logFile = config.DefaultLogPath()
	}
	log, closer, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   logFile,
		Out:    stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	if source == "" {
		log.Info().Msg("no config file found, using defaults")
	} else {
		log.Info().Str("path", source).Msg("config loaded")
	}
	return &app{cfg: cfg, log: log, closer: closer}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults. It returns the path the
// config came from, or "" for defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, defaultPath, nil
	}

	return config.Default(), "", nil
}

func applyOverrides(cfg *config.Config, opts *globalOptions) {
	if opts.model != "" {
		cfg.Model = opts.model
	}
	if opts.logLevel != "" {
		cfg.LogLevel = strings.ToLower(opts.logLevel)
	}
}

func prompter(opts *globalOptions) models.Prompter {
	if opts.yes {
		return models.AutoApprove{}
	}
	return models.TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// provision makes sure the configured model is extracted into the cache.
func (a *app) provision(p models.Prompter) (models.Handle, error) {
	prov := &models.Provisioner{
		CacheDir:   a.cfg.CacheDir,
		ArchiveDir: a.cfg.ArchiveDir,
		Prompt:     p,
		Log:        logger.Component(a.log, "models"),
	}
	h, err := prov.Ensure(a.cfg.Model)
	if err != nil {
		a.log.Error().Err(err).Str("model", a.cfg.Model).Msg("model not available")
		if errors.Is(err, &models.ProvisionError{Kind: models.UserDeclined}) {
			return models.Handle{}, fmt.Errorf("%w; nothing to do without a model", err)
		}
		return models.Handle{}, err
	}
	return h, nil
}

// pipeline is the recognizer, worker and exporter built around one model.
type pipeline struct {
	rec      *transcribe.WhisperTranscriber
	worker   *worker.Worker
	exporter *export.Exporter
}

func (a *app) newPipeline(h models.Handle, openAfterSave bool) (*pipeline, error) {
	modelFile, err := h.ModelFile()
	if err != nil {
		return nil, err
	}

	conv, err := convert.New(a.cfg.Convert.Profile, logger.Component(a.log, "convert"))
	if err != nil {
		return nil, err
	}

	exec := executor.New()
	loader := transcribe.NewAudioLoader(exec, a.cfg.Transcribe.FFmpegPath, logger.Component(a.log, "audio"))

	a.log.Info().Str("model", modelFile).Msg("loading whisper model")
	start := time.Now()
	rec, err := transcribe.NewWhisperTranscriber(modelFile, loader, transcribe.WhisperOptions{
		Language: a.cfg.Transcribe.Language,
		Threads:  a.cfg.Transcribe.Threads,
	}, logger.Component(a.log, "whisper"))
	if err != nil {
		return nil, fmt.Errorf("loading whisper model %s: %w", modelFile, err)
	}
	a.log.Info().Dur("elapsed", time.Since(start).Round(time.Millisecond)).Msg("model loaded")

	var opener export.Opener
	if openAfterSave {
		opener = export.DesktopOpener(exec, os.Getenv)
	}

	return &pipeline{
		rec:      rec,
		worker:   worker.New(rec, conv, logger.Component(a.log, "worker")),
		exporter: export.New(opener, logger.Component(a.log, "export")),
	}, nil
}

// Close releases the model unless a batch is still using it.
func (p *pipeline) Close(log zerolog.Logger) {
	if p.worker.Running() {
		log.Warn().Msg("exiting with a file still being transcribed")
		return
	}
	if err := p.rec.Close(); err != nil {
		log.Warn().Err(err).Msg("closing whisper model")
	}
}

// printBanner displays the startup configuration summary.
func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "=== gostt-scribe ===")
	fmt.Fprintf(w, "  Model:    %s (%s)\n", cfg.Model, cfg.CacheDir)
	fmt.Fprintf(w, "  Language: %s\n", cfg.Transcribe.Language)
	fmt.Fprintf(w, "  Convert:  %s\n", cfg.Convert.Profile)
	fmt.Fprintf(w, "  Files:    %s\n", strings.Join(cfg.Selection.Extensions, " "))
	fmt.Fprintf(w, "  Log:      %s\n", cfg.LogLevel)
	fmt.Fprintln(w, "====================")
}
