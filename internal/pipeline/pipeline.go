package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"vellum/internal/config"
	"vellum/internal/document"
	"vellum/internal/engine"
	"vellum/internal/logging"
)

const defaultResolutionDPI = 300

// Request describes one conversion job as the pipeline sees it. Cancelled is
// polled at progress boundaries, which bounds cancellation latency to the
// progress-callback interval.
type Request struct {
	JobID              string
	InputPath          string
	OutputPath         string
	ComplianceLevel    engine.ComplianceLevel
	OCREnabled         bool
	ForceOCR           bool
	SkipOCROnTagged    bool
	OCRLanguage        string
	CompressionProfile string
	Cancelled          func() bool
}

// Result summarizes a successful conversion.
type Result struct {
	OutputPath      string
	AppliedTier     int
	ComplianceLevel engine.ComplianceLevel
	OCRPerformed    bool
	PassedThrough   bool
}

// Callbacks receive progress and events while the pipeline runs. Both are
// optional; panics raised by a callback are contained and logged rather than
// unwinding the pipeline.
type Callbacks struct {
	OnProgress func(engine.Progress)
	OnEvent    func(Event)
}

// Pipeline composes the document inspector, the compression selector, and the
// fallback controller around the external conversion engine.
type Pipeline struct {
	converter engine.Converter
	extractor document.Extractor
	inspector *document.Inspector
	fallback  *fallbackController
	logger    *slog.Logger
}

// New wires a pipeline from its collaborators and config-driven thresholds.
func New(converter engine.Converter, extractor document.Extractor, cfg *config.Config, logger *slog.Logger) *Pipeline {
	inspector := document.NewInspector(extractor, document.Thresholds{
		MaxPagesChecked:    cfg.Inspection.MaxPagesChecked,
		MinCharsPerPage:    cfg.Inspection.MinCharsPerPage,
		TextRatioThreshold: cfg.Inspection.TextRatioThreshold,
	}, logger)
	return &Pipeline{
		converter: converter,
		extractor: extractor,
		inspector: inspector,
		fallback:  newFallbackController(converter, cfg.Conversion.SafeModeResolutionDPI, logger),
		logger:    logging.WithComponent(logger, "pipeline"),
	}
}

// Run converts one document, reporting progress and events through cb.
func (p *Pipeline) Run(ctx context.Context, req Request, cb Callbacks) (Result, error) {
	emit := p.guardEvent(req.JobID, cb.OnEvent)
	progress := p.guardProgress(req.JobID, cb.OnProgress)

	emit(NewEvent(
		EventFormatConversion,
		"starting archival conversion",
		FormatConversionDetails{
			InputPath:   req.InputPath,
			TargetLevel: req.ComplianceLevel.String(),
		},
	))

	info, err := p.extractor.Info(ctx, req.InputPath)
	if err != nil {
		return Result{}, fmt.Errorf("inspect document: %w", err)
	}

	forceOCR := req.ForceOCR || (req.OCREnabled && !req.SkipOCROnTagged)
	decision, err := p.inspector.Inspect(ctx, req.InputPath, info, forceOCR)
	if err != nil {
		return Result{}, fmt.Errorf("ocr decision: %w", err)
	}
	needsOCR := decision.NeedsOCR && req.OCREnabled
	emit(NewEvent(
		EventOCRDecision,
		fmt.Sprintf("ocr decision: needs_ocr=%t reason=%s", decision.NeedsOCR, decision.Reason),
		OCRDecisionDetails{NeedsOCR: decision.NeedsOCR, Reason: decision.Reason, Stats: decision.Stats},
	))

	profile := selectCompression(info.Tagged, req.CompressionProfile, emit)

	if req.ComplianceLevel == engine.LevelPlain && !needsOCR {
		return p.passthrough(req, info, emit, progress)
	}

	settings := engine.Settings{
		ComplianceLevel:    req.ComplianceLevel,
		ResolutionDPI:      defaultResolutionDPI,
		OptimizeLevel:      1,
		RemoveVectors:      profile.stripsVectors,
		OCREnabled:         needsOCR,
		OCRLanguage:        req.OCRLanguage,
		CompressionProfile: profile.name,
	}

	engReq := engine.Request{
		InputPath:  req.InputPath,
		OutputPath: req.OutputPath,
		Settings:   settings,
		OnProgress: progress,
		Cancelled:  req.Cancelled,
	}

	tier, applied, err := p.fallback.run(ctx, engReq, emit)
	if err != nil {
		return Result{}, err
	}

	progress(engine.Progress{Stage: "finalize", Percent: 100, Message: "conversion complete"})
	return Result{
		OutputPath:      req.OutputPath,
		AppliedTier:     tier,
		ComplianceLevel: applied.ComplianceLevel,
		OCRPerformed:    applied.OCREnabled,
	}, nil
}

// passthrough relabels an already-prepared document without invoking the
// engine. Only valid when the target is plain output and OCR is off.
func (p *Pipeline) passthrough(req Request, info document.Info, emit func(Event), progress func(engine.Progress)) (Result, error) {
	if err := copyFile(req.InputPath, req.OutputPath); err != nil {
		return Result{}, fmt.Errorf("passthrough copy: %w", err)
	}
	emit(NewEvent(
		EventPassthroughMode,
		"plain output requested with OCR disabled, engine skipped",
		PassthroughDetails{
			Enabled:       true,
			Reason:        "plain_target_no_ocr",
			TagsPreserved: info.Tagged,
		},
	))
	progress(engine.Progress{Stage: "passthrough", Percent: 100, Message: "document relabeled"})
	return Result{
		OutputPath:      req.OutputPath,
		ComplianceLevel: engine.LevelPlain,
		PassedThrough:   true,
	}, nil
}

func (p *Pipeline) guardEvent(jobID string, fn func(Event)) func(Event) {
	return func(event Event) {
		if fn == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("event callback panicked",
					logging.String(logging.FieldJobID, jobID),
					logging.Any("panic", r),
				)
			}
		}()
		fn(event)
	}
}

func (p *Pipeline) guardProgress(jobID string, fn func(engine.Progress)) func(engine.Progress) {
	return func(update engine.Progress) {
		if fn == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("progress callback panicked",
					logging.String(logging.FieldJobID, jobID),
					logging.Any("panic", r),
				)
			}
		}()
		fn(update)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
