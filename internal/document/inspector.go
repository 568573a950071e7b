package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vellum/internal/logging"
)

// Decision reasons reported by the inspector.
const (
	ReasonTagged    = "tagged_pdf"
	ReasonHasText   = "has_text"
	ReasonNoText    = "no_text"
	ReasonForcedOCR = "forced_ocr"
)

// TextStats captures the sampling evidence behind a text-density decision.
type TextStats struct {
	PagesWithText     int     `json:"pages_with_text"`
	TotalPagesChecked int     `json:"total_pages_checked"`
	TextRatio         float64 `json:"text_ratio"`
	TotalCharacters   int     `json:"total_characters"`
}

// Decision is the inspector's OCR verdict for one document.
type Decision struct {
	NeedsOCR bool      `json:"needs_ocr"`
	Reason   string    `json:"reason"`
	Stats    TextStats `json:"stats"`
}

// Thresholds are the tunable heuristics for the text-density sampling.
type Thresholds struct {
	MaxPagesChecked    int
	MinCharsPerPage    int
	TextRatioThreshold float64
}

// Inspector decides whether a document needs OCR and whether structural tags
// must be protected during conversion.
type Inspector struct {
	extractor  Extractor
	thresholds Thresholds
	logger     *slog.Logger
}

// NewInspector builds an inspector around a text extractor.
func NewInspector(extractor Extractor, thresholds Thresholds, logger *slog.Logger) *Inspector {
	if thresholds.MaxPagesChecked < 1 {
		thresholds.MaxPagesChecked = 10
	}
	if thresholds.MinCharsPerPage < 0 {
		thresholds.MinCharsPerPage = 0
	}
	return &Inspector{
		extractor:  extractor,
		thresholds: thresholds,
		logger:     logging.WithComponent(logger, "inspector"),
	}
}

// Inspect samples the document and returns the OCR decision.
//
// Tagged documents skip OCR regardless of text density, because re-rasterizing
// them destroys the structural tags archival outputs must preserve. forceOCR
// overrides that protection at the caller's explicit request.
func (i *Inspector) Inspect(ctx context.Context, path string, info Info, forceOCR bool) (Decision, error) {
	if info.Tagged {
		if forceOCR {
			decision := Decision{NeedsOCR: true, Reason: ReasonForcedOCR}
			i.logDecision(decision)
			return decision, nil
		}
		decision := Decision{NeedsOCR: false, Reason: ReasonTagged}
		i.logDecision(decision)
		return decision, nil
	}

	pages := info.PageCount
	if pages > i.thresholds.MaxPagesChecked {
		pages = i.thresholds.MaxPagesChecked
	}
	if pages < 1 {
		return Decision{NeedsOCR: true, Reason: ReasonNoText}, nil
	}

	stats := TextStats{TotalPagesChecked: pages}
	for page := 1; page <= pages; page++ {
		text, err := i.extractor.PageText(ctx, path, page)
		if err != nil {
			return Decision{}, fmt.Errorf("inspect page %d: %w", page, err)
		}
		chars := len(strings.TrimSpace(text))
		stats.TotalCharacters += chars
		if chars > i.thresholds.MinCharsPerPage {
			stats.PagesWithText++
		}
	}
	stats.TextRatio = float64(stats.PagesWithText) / float64(stats.TotalPagesChecked)

	decision := Decision{Stats: stats}
	if stats.TextRatio >= i.thresholds.TextRatioThreshold {
		decision.NeedsOCR = false
		decision.Reason = ReasonHasText
	} else {
		decision.NeedsOCR = true
		decision.Reason = ReasonNoText
	}
	i.logDecision(decision)
	return decision, nil
}

func (i *Inspector) logDecision(d Decision) {
	i.logger.Debug("ocr decision",
		logging.Bool("needs_ocr", d.NeedsOCR),
		logging.String("reason", d.Reason),
		logging.Int("pages_with_text", d.Stats.PagesWithText),
		logging.Int("pages_checked", d.Stats.TotalPagesChecked),
		logging.Float64("text_ratio", d.Stats.TextRatio),
	)
}
