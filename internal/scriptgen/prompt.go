package scriptgen

import (
	"fmt"
	"math"
	"strings"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
)

const (
	MinDurationSeconds = 30
	MaxDurationSeconds = 600
	WordsPerMinute     = 150
	notesExcerptLimit  = 4000
)

// FallbackScript is used whenever generation fails.
const FallbackScript = "Welcome to NoteFlix. This is an automatically generated study summary. " +
	"Please review your notes and key definitions."

const promptTemplate = `You are scripting a short educational podcast%s.
%s
Constraints:
- Length: about %d seconds total, roughly %d spoken words
- Style: %s
- Friendly, precise, clear. Short sentences. No filler.
- Plain spoken text only: no markdown, no stage directions, no sound effects.
- Keep it grounded in the NOTES content. If missing, infer a reasonable, generic overview.

NOTES:
%s`

// ClampDuration bounds the requested duration to what a script can target.
func ClampDuration(seconds int) int {
	return min(max(seconds, MinDurationSeconds), MaxDurationSeconds)
}

// TargetWords converts a duration into a word budget at WordsPerMinute.
func TargetWords(seconds int) int {
	return int(math.Round(float64(WordsPerMinute) * float64(seconds) / 60))
}

// BuildPrompt renders the generation prompt for req.
func BuildPrompt(req Request) string {
	seconds := ClampDuration(req.DurationSeconds)

	speakers := ""
	shape := "Write a single narrator script."
	if req.Dialogue == domain.DialogueDuet {
		speakers = " with TWO speakers (Alex and Sam)"
		shape = "Write alternating lines, each starting with 'Alex:' or 'Sam:'. Alex speaks first."
	}

	style := strings.TrimSpace(req.Style)
	if style == "" {
		style = "informative"
	}

	notes := strings.TrimSpace(req.Notes)
	if len(notes) > notesExcerptLimit {
		notes = strings.ToValidUTF8(notes[:notesExcerptLimit], "")
	}
	if notes == "" {
		notes = "(No extracted text available. Create a generic study overview.)"
	}

	return fmt.Sprintf(promptTemplate, speakers, shape, seconds, TargetWords(seconds), style, notes)
}
