package engine

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func stubEngine(t *testing.T, script string) {
	t.Helper()
	restore := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "/bin/sh", "-c", script)
	}
	t.Cleanup(func() { commandContext = restore })
}

func TestConvertStreamsProgress(t *testing.T) {
	stubEngine(t, `printf '%s\n' '{"stage":"render","current":1,"total":2,"percent":50,"message":"halfway"}' '{"stage":"render","current":2,"total":2,"percent":100,"message":"done"}'`)

	var updates []Progress
	err := NewCLI().Convert(context.Background(), Request{
		InputPath:  "/tmp/in.pdf",
		OutputPath: "/tmp/out.pdf",
		OnProgress: func(p Progress) { updates = append(updates, p) },
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 progress updates, got %d", len(updates))
	}
	if updates[0].Percent != 50 || updates[1].Percent != 100 {
		t.Fatalf("unexpected percents: %+v", updates)
	}
	if updates[0].Stage != "render" || updates[0].Message != "halfway" {
		t.Fatalf("unexpected first update: %+v", updates[0])
	}
}

func TestConvertClassifiesFailure(t *testing.T) {
	stubEngine(t, `echo 'Error: password required to open document' >&2; exit 1`)

	err := NewCLI().Convert(context.Background(), Request{InputPath: "in", OutputPath: "out"})
	if !errors.Is(err, ErrEncryptedInput) {
		t.Fatalf("expected encrypted-input classification, got %v", err)
	}
}

func TestConvertHonorsExitCodeClassification(t *testing.T) {
	stubEngine(t, `exit 15`)

	err := NewCLI().Convert(context.Background(), Request{InputPath: "in", OutputPath: "out"})
	if !errors.Is(err, ErrRendererCrash) {
		t.Fatalf("expected renderer-crash classification, got %v", err)
	}
}

func TestConvertCancelsCooperatively(t *testing.T) {
	stubEngine(t, `printf '%s\n' '{"stage":"render","percent":10}'; sleep 30`)

	err := NewCLI().Convert(context.Background(), Request{
		InputPath:  "in",
		OutputPath: "out",
		Cancelled:  func() bool { return true },
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConvertRequiresPaths(t *testing.T) {
	if err := NewCLI().Convert(context.Background(), Request{OutputPath: "out"}); err == nil {
		t.Fatal("expected error for missing input path")
	}
	if err := NewCLI().Convert(context.Background(), Request{InputPath: "in"}); err == nil {
		t.Fatal("expected error for missing output path")
	}
}

func TestBuildArgsIncludesSettings(t *testing.T) {
	args := buildArgs(Request{
		InputPath:  "in.pdf",
		OutputPath: "out.pdf",
		Settings: Settings{
			ComplianceLevel:    Level2,
			ResolutionDPI:      300,
			OptimizeLevel:      1,
			RemoveVectors:      true,
			OCREnabled:         true,
			OCRLanguage:        "eng",
			CompressionProfile: "standard",
		},
	})
	joined := strings.Join(args, " ")
	for _, want := range []string{"--compliance 2", "--resolution 300", "--remove-vectors", "--ocr", "--language eng", "--compression standard"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected args to contain %q, got %v", want, args)
		}
	}
}
