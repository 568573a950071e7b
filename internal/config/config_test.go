package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vellum/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path even when file is missing")
	}
	if cfg.Jobs.MaxConcurrent != 3 {
		t.Fatalf("expected default max_concurrent 3, got %d", cfg.Jobs.MaxConcurrent)
	}
}

func TestLoadParsesAndExpands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
workspace_dir = "` + filepath.Join(dir, "work") + `"

[jobs]
max_concurrent = 7

[conversion]
default_ocr_language = "deu"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Jobs.MaxConcurrent != 7 {
		t.Fatalf("expected max_concurrent 7, got %d", cfg.Jobs.MaxConcurrent)
	}
	if cfg.Conversion.DefaultOCRLanguage != "deu" {
		t.Fatalf("unexpected language hint: %s", cfg.Conversion.DefaultOCRLanguage)
	}
	if !filepath.IsAbs(cfg.Paths.WorkspaceDir) {
		t.Fatalf("expected workspace dir to be absolute, got %s", cfg.Paths.WorkspaceDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero concurrency", func(c *config.Config) { c.Jobs.MaxConcurrent = 0 }, "max_concurrent"},
		{"ratio above one", func(c *config.Config) { c.Inspection.TextRatioThreshold = 1.5 }, "text_ratio_threshold"},
		{"unknown profile", func(c *config.Config) { c.Conversion.DefaultCompression = "shiny" }, "default_compression"},
		{"bad language", func(c *config.Config) { c.Conversion.DefaultOCRLanguage = "not a language!" }, "default_ocr_language"},
		{"compliance out of range", func(c *config.Config) { c.Conversion.DefaultComplianceLevel = 9 }, "default_compliance_level"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestMultiLanguageHintValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Conversion.DefaultOCRLanguage = "eng+deu"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("multi-language hint should validate: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(dir, "work")
	cfg.Paths.InboxDir = filepath.Join(dir, "inbox")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, p := range []string{cfg.Paths.WorkspaceDir, cfg.Paths.InboxDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory at %s", p)
		}
	}
}
