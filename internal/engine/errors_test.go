package engine

import (
	"errors"
	"testing"
)

func TestClassifyByExitCode(t *testing.T) {
	cases := []struct {
		name string
		code int
		want error
	}{
		{"invalid input", 2, ErrInvalidInput},
		{"encrypted", 8, ErrEncryptedInput},
		{"prior artifact", 10, ErrPriorArtifact},
		{"renderer crash", 15, ErrRendererCrash},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify(tc.code, "some detail", errors.New("exit status"))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestClassifyByStderrMarker(t *testing.T) {
	cases := []struct {
		name   string
		stderr string
		want   error
	}{
		{"ghostscript", "GPL Ghostscript 10.0: fatal internal error", ErrRendererCrash},
		{"rangecheck", "Error: /rangecheck in --run--", ErrRendererCrash},
		{"password", "Error: password required to open document", ErrEncryptedInput},
		{"damaged", "input file is damaged beyond repair", ErrInvalidInput},
		{"prior output", "skipping: output exists and satisfies target", ErrPriorArtifact},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify(1, tc.stderr, errors.New("exit status 1"))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestClassifyUnrecognizedPassesThrough(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Classify(1, "something novel went wrong", cause)
	for _, class := range []error{ErrRendererCrash, ErrEncryptedInput, ErrInvalidInput, ErrPriorArtifact} {
		if errors.Is(err, class) {
			t.Fatalf("unclassified failure must not match %v", class)
		}
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be wrapped")
	}
}

func TestDowngradeStopsAtLevelOne(t *testing.T) {
	if got := Level3.Downgrade(); got != Level2 {
		t.Fatalf("expected level-2, got %v", got)
	}
	if got := Level2.Downgrade(); got != Level1 {
		t.Fatalf("expected level-1, got %v", got)
	}
	if got := Level1.Downgrade(); got != Level1 {
		t.Fatalf("level-1 must not downgrade, got %v", got)
	}
	if got := LevelPlain.Downgrade(); got != LevelPlain {
		t.Fatalf("plain must not downgrade, got %v", got)
	}
}
