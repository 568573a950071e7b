package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var knownCompressionProfiles = map[string]struct{}{
	"standard": {},
	"maximum":  {},
	"preserve": {},
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		problems = append(problems, "paths.workspace_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, "paths.output_dir must not be empty")
	}
	if strings.TrimSpace(c.Engine.Binary) == "" {
		problems = append(problems, "engine.binary must not be empty")
	}
	if c.Jobs.MaxConcurrent < 1 {
		problems = append(problems, "jobs.max_concurrent must be at least 1")
	}
	if c.Jobs.TimeoutSeconds < 1 {
		problems = append(problems, "jobs.timeout_seconds must be positive")
	}
	if c.Jobs.TimeoutScanSeconds < 1 {
		problems = append(problems, "jobs.timeout_scan_seconds must be positive")
	}
	if c.Jobs.CleanupTTLSeconds < 0 {
		problems = append(problems, "jobs.cleanup_ttl_seconds must not be negative")
	}
	if c.Inspection.MaxPagesChecked < 1 {
		problems = append(problems, "inspection.max_pages_checked must be at least 1")
	}
	if c.Inspection.MinCharsPerPage < 0 {
		problems = append(problems, "inspection.min_chars_per_page must not be negative")
	}
	if c.Inspection.TextRatioThreshold < 0 || c.Inspection.TextRatioThreshold > 1 {
		problems = append(problems, "inspection.text_ratio_threshold must be within [0, 1]")
	}
	if c.Conversion.DefaultComplianceLevel < 0 || c.Conversion.DefaultComplianceLevel > 3 {
		problems = append(problems, "conversion.default_compliance_level must be within [0, 3]")
	}
	if c.Conversion.SafeModeResolutionDPI < 72 {
		problems = append(problems, "conversion.safe_mode_resolution_dpi must be at least 72")
	}
	if c.Broadcast.ProgressThrottleMillis < 0 {
		problems = append(problems, "broadcast.progress_throttle_millis must not be negative")
	}
	if _, ok := knownCompressionProfiles[c.Conversion.DefaultCompression]; !ok {
		problems = append(problems, fmt.Sprintf("conversion.default_compression %q is not a known profile", c.Conversion.DefaultCompression))
	}
	if lang := c.Conversion.DefaultOCRLanguage; lang != "" {
		if _, err := language.Parse(normalizeLanguageHint(lang)); err != nil {
			problems = append(problems, fmt.Sprintf("conversion.default_ocr_language %q is not a recognized language tag", lang))
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// normalizeLanguageHint maps common three-letter OCR codes onto tags the BCP-47
// parser accepts. Engine language packs use ISO 639-2 codes ("eng", "deu"),
// which language.Parse handles, but "+"-joined multi-language hints do not.
func normalizeLanguageHint(hint string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(hint), "+")
	return first
}
