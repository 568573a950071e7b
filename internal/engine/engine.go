package engine

import "context"

// ComplianceLevel identifies the archival-output profile family the conversion
// must satisfy. Zero means plain (non-archival) output.
type ComplianceLevel int

const (
	LevelPlain ComplianceLevel = iota
	Level1
	Level2
	Level3
)

// Downgrade returns the next-lower compliance level. Plain output and level 1
// cannot be downgraded further.
func (l ComplianceLevel) Downgrade() ComplianceLevel {
	if l <= Level1 {
		return l
	}
	return l - 1
}

func (l ComplianceLevel) String() string {
	switch l {
	case LevelPlain:
		return "plain"
	case Level1:
		return "level-1"
	case Level2:
		return "level-2"
	case Level3:
		return "level-3"
	default:
		return "unknown"
	}
}

// Settings are the knobs passed to the conversion engine for one attempt.
type Settings struct {
	ComplianceLevel    ComplianceLevel
	ResolutionDPI      int
	OptimizeLevel      int
	RemoveVectors      bool
	OCREnabled         bool
	OCRLanguage        string
	CompressionProfile string
}

// Progress captures one engine progress callback.
type Progress struct {
	Stage   string  `json:"stage"`
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// Request describes a single conversion attempt.
//
// OnProgress is invoked from the engine's reader goroutine; it must not block
// for long. Cancelled is polled between progress updates; when it reports
// true, the engine process is terminated and Convert returns
// context.Canceled.
type Request struct {
	InputPath  string
	OutputPath string
	Settings   Settings
	OnProgress func(Progress)
	Cancelled  func() bool
}

// Converter is the external conversion engine collaborator. Implementations
// return nil on success or one of the classified errors from this package.
type Converter interface {
	Convert(ctx context.Context, req Request) error
}
