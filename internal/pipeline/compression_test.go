package pipeline

import "testing"

func TestVectorStrippingProfileSwitchedForTagged(t *testing.T) {
	var events []Event
	profile := selectCompression(true, "maximum", collectEvents(&events))

	if profile.name != "preserve" {
		t.Fatalf("expected preserve substitution, got %s", profile.name)
	}
	if len(events) != 1 || events[0].Type != EventCompressionSelected {
		t.Fatalf("expected one compression_selected event, got %+v", events)
	}
	details := events[0].Details.(CompressionSelectedDetails)
	if details.Original != "maximum" || details.Selected != "preserve" {
		t.Fatalf("unexpected substitution pair: %+v", details)
	}
	if details.Reason != ReasonAutoSwitchedForTagged {
		t.Fatalf("unexpected reason: %s", details.Reason)
	}
}

func TestUntaggedKeepsRequestedProfile(t *testing.T) {
	var events []Event
	profile := selectCompression(false, "maximum", collectEvents(&events))

	if profile.name != "maximum" {
		t.Fatalf("expected maximum, got %s", profile.name)
	}
	if len(events) != 0 {
		t.Fatalf("no events expected, got %d", len(events))
	}
}

func TestTaggedWithSafeProfileKeepsIt(t *testing.T) {
	var events []Event
	profile := selectCompression(true, "standard", collectEvents(&events))

	if profile.name != "standard" {
		t.Fatalf("expected standard, got %s", profile.name)
	}
	if len(events) != 0 {
		t.Fatalf("no substitution event expected, got %d", len(events))
	}
}

func TestUnknownProfileFallsBackToStandard(t *testing.T) {
	profile := selectCompression(false, "bogus", func(Event) {})
	if profile.name != "standard" {
		t.Fatalf("expected standard fallback, got %s", profile.name)
	}
}
