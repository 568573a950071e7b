package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vellum/internal/broadcast"
	"vellum/internal/engine"
	"vellum/internal/jobs"
	"vellum/internal/logging"
)

// ingestableExtensions lists the document formats accepted from the inbox.
var ingestableExtensions = map[string]struct{}{
	".pdf":  {},
	".ps":   {},
	".eps":  {},
	".tif":  {},
	".tiff": {},
}

// settleWindow guards against ingesting files that are still being written.
const settleWindow = 2 * time.Second

func (d *Daemon) inboxLoop() {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Jobs.InboxPollSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if err := d.ingestOnce(d.ctx); err != nil {
				d.logger.Warn("inbox scan failed", logging.Error(err))
			}
		}
	}
}

// ingestOnce moves every settled document out of the inbox and submits it as
// a job with the configured conversion defaults.
func (d *Daemon) ingestOnce(ctx context.Context) error {
	entries, err := os.ReadDir(d.cfg.Paths.InboxDir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := ingestableExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < settleWindow {
			continue
		}

		if err := d.ingestFile(ctx, filepath.Join(d.cfg.Paths.InboxDir, name)); err != nil {
			d.logger.Error("inbox ingest failed",
				logging.String("file", name),
				logging.Error(err),
			)
		}
	}
	return nil
}

// ingestFile moves the document into a staging directory under the workspace
// before submission, so a second scan never sees it again.
func (d *Daemon) ingestFile(ctx context.Context, path string) error {
	stagingDir := filepath.Join(d.cfg.Paths.WorkspaceDir, "ingest")
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}

	staged := filepath.Join(stagingDir, filepath.Base(path))
	if err := os.Rename(path, staged); err != nil {
		return fmt.Errorf("stage document: %w", err)
	}

	snapshot, err := d.manager.Create(ctx, staged, d.defaultJobConfig())
	if err != nil {
		return fmt.Errorf("submit job: %w", err)
	}
	d.attachObservers(ctx, snapshot.ID)

	d.logger.Info("inbox document submitted",
		logging.String(logging.FieldJobID, snapshot.ID),
		logging.String("input", filepath.Base(path)),
	)
	return nil
}

// attachObservers registers the daemon-side sinks for a freshly created job:
// a log mirror, and the external websocket observer when one is configured.
func (d *Daemon) attachObservers(ctx context.Context, jobID string) {
	if _, err := d.manager.RegisterObserver(jobID, broadcast.NewLogSink(d.logger)); err != nil {
		d.logger.Warn("attach log observer", logging.String(logging.FieldJobID, jobID), logging.Error(err))
	}

	url := strings.TrimSpace(d.cfg.Broadcast.ObserverURL)
	if url == "" {
		return
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	sink, err := broadcast.DialWebSocketSink(dialCtx, url)
	if err != nil {
		d.logger.Warn("attach websocket observer", logging.String(logging.FieldJobID, jobID), logging.Error(err))
		return
	}
	if _, err := d.manager.RegisterObserver(jobID, sink); err != nil {
		_ = sink.Close()
		d.logger.Warn("attach websocket observer", logging.String(logging.FieldJobID, jobID), logging.Error(err))
	}
}

func (d *Daemon) defaultJobConfig() jobs.ConversionConfig {
	return jobs.ConversionConfig{
		ComplianceLevel: engine.ComplianceLevel(d.cfg.Conversion.DefaultComplianceLevel),
		OCREnabled:      true,
		SkipOCROnTagged: true,
	}
}
