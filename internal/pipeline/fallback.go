package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vellum/internal/engine"
	"vellum/internal/logging"
)

// Fallback escalation reasons reported in fallback_applied events.
const (
	fallbackReasonRenderer = "ghostscript_error"
	fallbackReasonTier2    = "tier2_failed"
)

// TierAttempt records one conversion attempt for the exhausted-tiers report.
type TierAttempt struct {
	Tier     int
	Settings engine.Settings
	Err      error
}

// ExhaustedError is the consolidated failure raised when every fallback tier
// has been attempted without success.
type ExhaustedError struct {
	Attempts []TierAttempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		parts = append(parts, fmt.Sprintf("tier %d: %v", attempt.Tier, attempt.Err))
	}
	return fmt.Sprintf("conversion failed after %d tiers: %s", len(e.Attempts), strings.Join(parts, "; "))
}

// fallbackController runs the engine through up to three degrading settings
// tiers. Only renderer-crash-class failures escalate; everything else is
// surfaced immediately.
type fallbackController struct {
	converter engine.Converter
	safeDPI   int
	logger    *slog.Logger
}

func newFallbackController(converter engine.Converter, safeDPI int, logger *slog.Logger) *fallbackController {
	if safeDPI <= 0 {
		safeDPI = 150
	}
	return &fallbackController{
		converter: converter,
		safeDPI:   safeDPI,
		logger:    logging.WithComponent(logger, "fallback"),
	}
}

// run attempts the conversion, escalating tiers as permitted. On success it
// returns the tier that succeeded and the settings that tier applied.
func (f *fallbackController) run(ctx context.Context, req engine.Request, emit func(Event)) (int, engine.Settings, error) {
	tier1 := req.Settings
	err1 := f.attempt(ctx, req, tier1, 1)
	if done, err := resolveAttempt(err1); done {
		return 1, tier1, err
	}

	tier2 := tier1
	tier2.ResolutionDPI = f.safeDPI
	tier2.OptimizeLevel = 0
	tier2.RemoveVectors = false
	tier2.ComplianceLevel = tier1.ComplianceLevel.Downgrade()

	err2 := f.attempt(ctx, req, tier2, 2)
	if done, err := resolveAttempt(err2); done {
		if err == nil {
			emit(NewEvent(
				EventFallbackApplied,
				"conversion succeeded in safe mode after renderer crash",
				FallbackAppliedDetails{
					Tier:          2,
					Reason:        fallbackReasonRenderer,
					OriginalError: err1.Error(),
					SafeMode: &SafeModeSettings{
						ResolutionDPI: tier2.ResolutionDPI,
						OptimizeLevel: tier2.OptimizeLevel,
						RemoveVectors: tier2.RemoveVectors,
					},
					FromLevel: tier1.ComplianceLevel.String(),
					ToLevel:   tier2.ComplianceLevel.String(),
				},
			))
		}
		return 2, tier2, err
	}

	tier3 := tier2
	tier3.OCREnabled = false

	err3 := f.attempt(ctx, req, tier3, 3)
	if done, err := resolveAttempt(err3); done && err == nil {
		emit(NewEvent(
			EventFallbackApplied,
			"conversion succeeded with OCR disabled after repeated renderer crashes",
			FallbackAppliedDetails{
				Tier:          3,
				Reason:        fallbackReasonTier2,
				OriginalError: err2.Error(),
				OCRDisabled:   true,
			},
		))
		return 3, tier3, nil
	}
	if errors.Is(err3, context.Canceled) {
		return 3, tier3, err3
	}

	// The last tier has no further escalation; any failure here exhausts the
	// controller and is reported with every attempted tier.
	return 3, tier3, &ExhaustedError{Attempts: []TierAttempt{
		{Tier: 1, Settings: tier1, Err: err1},
		{Tier: 2, Settings: tier2, Err: err2},
		{Tier: 3, Settings: tier3, Err: err3},
	}}
}

func (f *fallbackController) attempt(ctx context.Context, req engine.Request, settings engine.Settings, tier int) error {
	attempt := req
	attempt.Settings = settings
	err := f.converter.Convert(ctx, attempt)
	if err != nil && !errors.Is(err, context.Canceled) {
		f.logger.Warn("conversion attempt failed",
			logging.Int(logging.FieldTier, tier),
			logging.Error(err),
		)
	}
	if errors.Is(err, engine.ErrPriorArtifact) {
		f.logger.Info("prior output already satisfies target, treating as success",
			logging.Int(logging.FieldTier, tier),
		)
	}
	return err
}

// resolveAttempt reports whether the attempt terminates the escalation.
// A renderer crash keeps escalating (done=false); success, a prior artifact,
// and every other error class stop here.
func resolveAttempt(err error) (done bool, result error) {
	if err == nil || errors.Is(err, engine.ErrPriorArtifact) {
		return true, nil
	}
	if errors.Is(err, engine.ErrRendererCrash) {
		return false, err
	}
	return true, err
}
