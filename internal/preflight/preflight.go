package preflight

import (
	"context"

	"vellum/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all startup checks for the given config: external binaries,
// directory access, and free disk space under the workspace.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckBinary("Conversion engine", cfg.Engine.Binary),
		CheckBinary("Text extractor", cfg.Engine.ExtractBinary),
		CheckBinary("Document info", cfg.Engine.InfoBinary),
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeDisk("Workspace free space", cfg.Paths.WorkspaceDir, cfg.Engine.MinFreeDiskGiB),
	}
	return results
}

// AllPassed reports whether every check succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
