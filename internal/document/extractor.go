package document

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Info summarizes the structural properties the inspector cares about.
type Info struct {
	Tagged    bool
	PageCount int
}

// Extractor reads structural metadata and per-page text from a prepared
// native-format document.
type Extractor interface {
	Info(ctx context.Context, path string) (Info, error)
	PageText(ctx context.Context, path string, page int) (string, error)
}

// PopplerExtractor shells out to pdfinfo/pdftotext-style helpers.
type PopplerExtractor struct {
	infoBinary    string
	extractBinary string
}

// NewPopplerExtractor constructs an extractor using the configured helper
// binaries. Empty names fall back to the conventional poppler tools.
func NewPopplerExtractor(infoBinary, extractBinary string) *PopplerExtractor {
	if strings.TrimSpace(infoBinary) == "" {
		infoBinary = "pdfinfo"
	}
	if strings.TrimSpace(extractBinary) == "" {
		extractBinary = "pdftotext"
	}
	return &PopplerExtractor{infoBinary: infoBinary, extractBinary: extractBinary}
}

// Info parses the key/value output of the info helper.
func (e *PopplerExtractor) Info(ctx context.Context, path string) (Info, error) {
	out, err := runCommand(ctx, e.infoBinary, path)
	if err != nil {
		return Info{}, fmt.Errorf("document info: %w", err)
	}

	info := Info{}
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Tagged":
			info.Tagged = strings.EqualFold(value, "yes")
		case "Pages":
			if pages, err := strconv.Atoi(value); err == nil {
				info.PageCount = pages
			}
		}
	}
	return info, nil
}

// PageText extracts the text of a single 1-based page.
func (e *PopplerExtractor) PageText(ctx context.Context, path string, page int) (string, error) {
	out, err := runCommand(ctx, e.extractBinary,
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		path, "-")
	if err != nil {
		return "", fmt.Errorf("extract page %d text: %w", page, err)
	}
	return out, nil
}

func runCommand(ctx context.Context, binary string, args ...string) (string, error) {
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("%s: %s: %w", binary, detail, err)
		}
		return "", fmt.Errorf("%s: %w", binary, err)
	}
	return stdout.String(), nil
}

var _ Extractor = (*PopplerExtractor)(nil)
