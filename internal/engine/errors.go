package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Classified engine failures. RendererCrash drives fallback-tier escalation;
// everything else is fatal to the attempt that produced it.
var (
	ErrRendererCrash  = errors.New("renderer crashed")
	ErrEncryptedInput = errors.New("input document is encrypted")
	ErrInvalidInput   = errors.New("input document is invalid")
	ErrPriorArtifact  = errors.New("output already satisfies the conversion goal")
)

// Engine exit codes, mirroring the converter CLI contract.
const (
	exitOK            = 0
	exitInvalidInput  = 2
	exitEncrypted     = 8
	exitRendererCrash = 15
	exitPriorArtifact = 10
)

var rendererMarkers = []string{
	"ghostscript",
	"rangecheck",
	"rasterizer crashed",
	"gs failed",
}

var encryptedMarkers = []string{
	"encrypted",
	"password required",
	"owner password",
}

var invalidMarkers = []string{
	"not a pdf",
	"damaged",
	"couldn't read xref",
	"malformed",
}

var priorArtifactMarkers = []string{
	"already conforms",
	"prior output found",
	"output exists and satisfies",
}

// Classify maps an engine process failure onto the error taxonomy. The exit
// code is authoritative; stderr markers are the fallback for engines that exit
// with a generic status. Unrecognized failures pass through unclassified.
func Classify(exitCode int, stderr string, cause error) error {
	switch exitCode {
	case exitInvalidInput:
		return wrapClass(ErrInvalidInput, stderr, cause)
	case exitEncrypted:
		return wrapClass(ErrEncryptedInput, stderr, cause)
	case exitRendererCrash:
		return wrapClass(ErrRendererCrash, stderr, cause)
	case exitPriorArtifact:
		return wrapClass(ErrPriorArtifact, stderr, cause)
	}

	lowered := strings.ToLower(stderr)
	classes := []struct {
		markers []string
		err     error
	}{
		{priorArtifactMarkers, ErrPriorArtifact},
		{rendererMarkers, ErrRendererCrash},
		{encryptedMarkers, ErrEncryptedInput},
		{invalidMarkers, ErrInvalidInput},
	}
	for _, class := range classes {
		for _, m := range class.markers {
			if strings.Contains(lowered, m) {
				return wrapClass(class.err, stderr, cause)
			}
		}
	}

	if cause != nil {
		return fmt.Errorf("engine failed: %w", cause)
	}
	return fmt.Errorf("engine failed with exit code %d: %s", exitCode, firstLine(stderr))
}

func wrapClass(class error, stderr string, cause error) error {
	detail := firstLine(stderr)
	if detail == "" && cause != nil {
		detail = cause.Error()
	}
	if detail == "" {
		return class
	}
	return fmt.Errorf("%w: %s", class, detail)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
