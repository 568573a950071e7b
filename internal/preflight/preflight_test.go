package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vellum/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBinary_Found(t *testing.T) {
	result := CheckBinary("shell", "sh")
	if !result.Passed {
		t.Fatalf("expected pass for sh, got: %s", result.Detail)
	}
}

func TestCheckBinary_Missing(t *testing.T) {
	result := CheckBinary("engine", "definitely-not-a-binary-xyz")
	if result.Passed {
		t.Fatal("expected failure for missing binary")
	}
}

func TestCheckBinary_Empty(t *testing.T) {
	result := CheckBinary("engine", "  ")
	if result.Passed {
		t.Fatal("expected failure for empty command")
	}
}

func TestCheckFreeDisk_NoMinimum(t *testing.T) {
	result := CheckFreeDisk("disk", t.TempDir(), 0)
	if !result.Passed {
		t.Fatalf("expected pass with no minimum, got: %s", result.Detail)
	}
}

func TestCheckFreeDisk_MissingPath(t *testing.T) {
	result := CheckFreeDisk("disk", filepath.Join(t.TempDir(), "nope"), 1)
	if result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReportsEveryCheck(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(dir, "workspace")
	cfg.Paths.InboxDir = filepath.Join(dir, "inbox")
	cfg.Paths.OutputDir = filepath.Join(dir, "output")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Engine.Binary = "sh"
	cfg.Engine.ExtractBinary = "sh"
	cfg.Engine.InfoBinary = "sh"
	cfg.Engine.MinFreeDiskGiB = 0
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}

	results := RunAll(context.Background(), &cfg)
	if len(results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(results))
	}
	if !AllPassed(results) {
		for _, r := range results {
			if !r.Passed {
				t.Errorf("check %q failed: %s", r.Name, r.Detail)
			}
		}
	}
}

func TestAllPassedDetectsFailure(t *testing.T) {
	results := []Result{{Name: "a", Passed: true}, {Name: "b", Passed: false}}
	if AllPassed(results) {
		t.Fatal("expected AllPassed to report failure")
	}
}
