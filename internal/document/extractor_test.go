package document

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func stubCommand(t *testing.T, script string) {
	t.Helper()
	restore := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "/bin/sh", "-c", script)
	}
	t.Cleanup(func() { commandContext = restore })
}

func TestPopplerInfoParsing(t *testing.T) {
	stubCommand(t, `printf 'Title:          Annual Report\nTagged:         yes\nPages:          12\n'`)

	info, err := NewPopplerExtractor("", "").Info(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if !info.Tagged {
		t.Fatal("expected tagged=true")
	}
	if info.PageCount != 12 {
		t.Fatalf("expected 12 pages, got %d", info.PageCount)
	}
}

func TestPopplerInfoUntagged(t *testing.T) {
	stubCommand(t, `printf 'Tagged:         no\nPages:          3\n'`)

	info, err := NewPopplerExtractor("", "").Info(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Tagged {
		t.Fatal("expected tagged=false")
	}
}

func TestPopplerPageText(t *testing.T) {
	stubCommand(t, `printf 'extracted page text'`)

	text, err := NewPopplerExtractor("", "").PageText(context.Background(), "doc.pdf", 1)
	if err != nil {
		t.Fatalf("PageText failed: %v", err)
	}
	if !strings.Contains(text, "extracted page text") {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestPopplerSurfacesStderr(t *testing.T) {
	stubCommand(t, `echo 'could not open file' >&2; exit 1`)

	_, err := NewPopplerExtractor("", "").Info(context.Background(), "doc.pdf")
	if err == nil || !strings.Contains(err.Error(), "could not open file") {
		t.Fatalf("expected stderr detail in error, got %v", err)
	}
}
