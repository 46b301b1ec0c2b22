package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Model      string           `yaml:"model"`
	CacheDir   string           `yaml:"cache_dir"`
	ArchiveDir string           `yaml:"archive_dir"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Convert    ConvertConfig    `yaml:"convert"`
	Selection  SelectionConfig  `yaml:"selection"`
	Save       SaveConfig       `yaml:"save"`
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"` // "console" or "json"
	LogFile    string           `yaml:"log_file"`
}

// TranscribeConfig holds speech recognition settings.
type TranscribeConfig struct {
	Language   string `yaml:"language"` // whisper language code or "auto"
	Threads    uint   `yaml:"threads"`  // 0 lets whisper.cpp decide
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// ConvertConfig holds script conversion settings.
type ConvertConfig struct {
	Profile string `yaml:"profile"` // opencc profile, or "none"
}

// SelectionConfig holds file selection settings.
type SelectionConfig struct {
	Extensions []string `yaml:"extensions"`
}

// SaveConfig holds transcript export settings.
type SaveConfig struct {
	Suffix        string `yaml:"suffix"`
	OpenAfterSave bool   `yaml:"open_after_save"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gostt-scribe")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultLogPath returns the log file used by the terminal UI when log_file
// is not set.
func DefaultLogPath() string {
	return filepath.Join(DefaultConfigDir(), "gostt-scribe.log")
}

// DefaultCacheDir returns the directory holding extracted whisper models.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", "whisper")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Model:      "large",
		CacheDir:   DefaultCacheDir(),
		ArchiveDir: ".",
		Transcribe: TranscribeConfig{
			Language:   "auto",
			FFmpegPath: "ffmpeg",
		},
		Convert: ConvertConfig{
			Profile: "t2s",
		},
		Selection: SelectionConfig{
			Extensions: []string{".mp3", ".wav", ".mp4", ".m4a", ".webm", ".ogg"},
		},
		Save: SaveConfig{
			Suffix:        "_transcript.txt",
			OpenAfterSave: true,
		},
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in directory paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.CacheDir = expandTilde(cfg.CacheDir)
	cfg.ArchiveDir = expandTilde(cfg.ArchiveDir)
	cfg.LogFile = expandTilde(cfg.LogFile)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if strings.ContainsAny(c.Model, `/\`) {
		return fmt.Errorf("model must be a bare name, got %q", c.Model)
	}

	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir must not be empty")
	}

	if c.Transcribe.FFmpegPath == "" {
		return fmt.Errorf("transcribe.ffmpeg_path must not be empty")
	}

	if c.Convert.Profile == "" {
		return fmt.Errorf("convert.profile must not be empty (use \"none\" to disable)")
	}

	for _, ext := range c.Selection.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("selection.extensions entries must start with \".\", got %q", ext)
		}
	}

	if c.Save.Suffix == "" {
		return fmt.Errorf("save.suffix must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be \"console\" or \"json\", got %q", c.LogFormat)
	}

	return nil
}

const defaultHeader = `# gostt-scribe configuration
#
# model:        whisper model name; extracted into <cache_dir>/<model> from
#               <archive_dir>/<model>.zip on first run
# convert:      opencc profile applied to every transcript ("none" disables)
# save.suffix:  appended to the last processed file's name for the default
#               save filename
`

// WriteDefault writes the default config to DefaultConfigPath. It returns the
// written path, or "" when a config file already exists there.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(defaultHeader+"\n"), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
