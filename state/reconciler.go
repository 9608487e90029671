package state

import (
	"regexp"

	"github.com/tylertzm/KnowledgeOS/internal/types"
)

// trigger pairs a compiled phrase pattern with the mode it selects.
// Patterns are unanchored, so a phrase anywhere in the transcription
// counts; (?i) makes the match case-insensitive.
type trigger struct {
	regex *regexp.Regexp
	mode  types.Mode
}

// Checked in order; the first matching phrase wins.
var triggers = []trigger{
	{regexp.MustCompile(`(?i)web search mode`), types.ModeWebSearch},
	{regexp.MustCompile(`(?i)ai mode`), types.ModeAI},
	{regexp.MustCompile(`(?i)transcription mode`), types.ModeTranscription},
}

// DetectMode scans a transcription for a mode trigger phrase and
// returns the selected mode. The backend's status poll remains
// authoritative: a locally detected mode holds only until the next
// successful poll reports otherwise.
func DetectMode(text string) (types.Mode, bool) {
	if text == "" {
		return "", false
	}
	for _, t := range triggers {
		if t.regex.MatchString(text) {
			return t.mode, true
		}
	}
	return "", false
}
