package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	InboxDir     string `toml:"inbox_dir"`
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
}

// Engine contains configuration for the external conversion engine.
type Engine struct {
	Binary         string `toml:"binary"`
	ExtractBinary  string `toml:"extract_binary"`
	InfoBinary     string `toml:"info_binary"`
	MinFreeDiskGiB int    `toml:"min_free_disk_gib"`
}

// Jobs contains lifecycle tuning for the job manager.
type Jobs struct {
	MaxConcurrent      int `toml:"max_concurrent"`
	TimeoutSeconds     int `toml:"timeout_seconds"`
	TimeoutScanSeconds int `toml:"timeout_scan_seconds"`
	CleanupTTLSeconds  int `toml:"cleanup_ttl_seconds"`
	CleanupScanSeconds int `toml:"cleanup_scan_seconds"`
	InboxPollSeconds   int `toml:"inbox_poll_seconds"`
}

// Inspection contains the text-density heuristics used to decide whether a
// document needs OCR. These are configurable defaults, not fixed policy.
type Inspection struct {
	MaxPagesChecked    int     `toml:"max_pages_checked"`
	MinCharsPerPage    int     `toml:"min_chars_per_page"`
	TextRatioThreshold float64 `toml:"text_ratio_threshold"`
}

// Conversion contains default conversion settings applied when a job omits them.
type Conversion struct {
	DefaultComplianceLevel int    `toml:"default_compliance_level"`
	DefaultOCRLanguage     string `toml:"default_ocr_language"`
	DefaultCompression     string `toml:"default_compression"`
	SafeModeResolutionDPI  int    `toml:"safe_mode_resolution_dpi"`
}

// Broadcast contains observer fan-out tuning. When ObserverURL is set the
// daemon dials it once per job and streams that job's messages over the
// connection as JSON frames.
type Broadcast struct {
	ProgressThrottleMillis int    `toml:"progress_throttle_millis"`
	ObserverURL            string `toml:"observer_url"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Failed         bool   `toml:"failed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vellum.
//
// Configuration sections by subsystem:
//   - Paths: workspace, inbox, output, and log directories
//   - Engine: external converter binaries and disk requirements
//   - Jobs: admission limit, timeout, and cleanup intervals
//   - Inspection: OCR decision heuristics
//   - Conversion: default conversion settings
//   - Broadcast: observer progress throttling
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Engine        Engine        `toml:"engine"`
	Jobs          Jobs          `toml:"jobs"`
	Inspection    Inspection    `toml:"inspection"`
	Conversion    Conversion    `toml:"conversion"`
	Broadcast     Broadcast     `toml:"broadcast"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// Sample returns the embedded sample configuration file contents.
func Sample() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vellum/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The boolean result reports
// whether a config file was found; defaults are used when it was not.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vellum.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}
