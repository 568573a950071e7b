package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	paths := []*string{
		&c.Paths.WorkspaceDir,
		&c.Paths.InboxDir,
		&c.Paths.OutputDir,
		&c.Paths.LogDir,
	}
	for _, p := range paths {
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}

	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	c.Engine.ExtractBinary = strings.TrimSpace(c.Engine.ExtractBinary)
	c.Engine.InfoBinary = strings.TrimSpace(c.Engine.InfoBinary)
	c.Conversion.DefaultOCRLanguage = strings.TrimSpace(c.Conversion.DefaultOCRLanguage)
	c.Conversion.DefaultCompression = strings.ToLower(strings.TrimSpace(c.Conversion.DefaultCompression))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// EnsureDirectories creates the directories vellum needs at runtime.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkspaceDir, c.Paths.InboxDir, c.Paths.OutputDir, c.Paths.LogDir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		trimmed = filepath.Join(home, trimmed[2:])
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
