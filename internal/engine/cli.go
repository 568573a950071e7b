package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default engine binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the external conversion engine command. The engine is a black
// box: it reads the input document, writes the archival output, and emits
// JSON progress lines on stdout.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "archivist"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Convert launches the engine and streams progress until it exits. Classified
// failures come back as the sentinel errors from this package; cooperative
// cancellation surfaces as context.Canceled.
func (c *CLI) Convert(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.InputPath) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("output path required")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := commandContext(runCtx, c.binary, buildArgs(req)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	cancelled := false
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		var update Progress
		if err := json.Unmarshal(scanner.Bytes(), &update); err != nil {
			continue
		}
		if req.OnProgress != nil {
			req.OnProgress(update)
		}
		if !cancelled && req.Cancelled != nil && req.Cancelled() {
			cancelled = true
			cancel()
		}
	}
	if err := scanner.Err(); err != nil && !cancelled && runCtx.Err() == nil {
		_ = cmd.Wait()
		return fmt.Errorf("read engine output: %w", err)
	}

	waitErr := cmd.Wait()
	if cancelled {
		return context.Canceled
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return Classify(exitCode, stderr.String(), waitErr)
	}
	return nil
}

func buildArgs(req Request) []string {
	s := req.Settings
	args := []string{
		"convert",
		"--input", req.InputPath,
		"--output", req.OutputPath,
		"--progress-json",
		"--compliance", strconv.Itoa(int(s.ComplianceLevel)),
	}
	if s.ResolutionDPI > 0 {
		args = append(args, "--resolution", strconv.Itoa(s.ResolutionDPI))
	}
	args = append(args, "--optimize", strconv.Itoa(s.OptimizeLevel))
	if s.RemoveVectors {
		args = append(args, "--remove-vectors")
	}
	if s.OCREnabled {
		args = append(args, "--ocr")
		if lang := strings.TrimSpace(s.OCRLanguage); lang != "" {
			args = append(args, "--language", lang)
		}
	}
	if profile := strings.TrimSpace(s.CompressionProfile); profile != "" {
		args = append(args, "--compression", profile)
	}
	return args
}

var _ Converter = (*CLI)(nil)
