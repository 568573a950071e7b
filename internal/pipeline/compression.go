package pipeline

import "fmt"

// ReasonAutoSwitchedForTagged explains a forced compression substitution.
const ReasonAutoSwitchedForTagged = "auto_switched_for_tagged_pdf"

// vectorPreservingProfile is the substitute applied when a requested profile
// would strip vector graphics out of a tagged document.
const vectorPreservingProfile = "preserve"

type compressionProfile struct {
	name          string
	stripsVectors bool
}

var compressionProfiles = map[string]compressionProfile{
	"standard": {name: "standard"},
	"maximum":  {name: "maximum", stripsVectors: true},
	"preserve": {name: "preserve"},
}

// selectCompression resolves the effective compression profile. Tagged
// documents never run through a vector-stripping profile: losing the vector
// layer would also lose the structure the tags describe.
func selectCompression(tagged bool, requested string, emit func(Event)) compressionProfile {
	profile, ok := compressionProfiles[requested]
	if !ok {
		profile = compressionProfiles["standard"]
	}
	if tagged && profile.stripsVectors {
		substitute := compressionProfiles[vectorPreservingProfile]
		emit(NewEvent(
			EventCompressionSelected,
			fmt.Sprintf("compression profile switched from %s to %s for tagged document", profile.name, substitute.name),
			CompressionSelectedDetails{
				Original: profile.name,
				Selected: substitute.name,
				Reason:   ReasonAutoSwitchedForTagged,
			},
		))
		return substitute
	}
	return profile
}
