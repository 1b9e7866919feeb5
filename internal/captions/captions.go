// Package captions renders a script as a WEBVTT caption track.
package captions

import (
	"fmt"
	"strings"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/textclean"
)

const (
	// CueDuration is the display window of every cue.
	CueDuration = 3 * time.Second
	Placeholder = "(no script)"
	header      = "WEBVTT"
)

// Cue is one timed caption line.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Cues splits the script into sentence chunks laid end to end, CueDuration each.
func Cues(script string) []Cue {
	cleaned := strings.TrimSpace(strings.ReplaceAll(script, "\r", ""))
	parts := textclean.Sentences(cleaned)
	if len(parts) == 0 {
		return []Cue{{Index: 1, Start: 0, End: CueDuration, Text: Placeholder}}
	}

	cues := make([]Cue, 0, len(parts))
	var at time.Duration
	for i, part := range parts {
		cues = append(cues, Cue{
			Index: i + 1,
			Start: at,
			End:   at + CueDuration,
			Text:  strings.Join(strings.Fields(part), " "),
		})
		at += CueDuration
	}
	return cues
}

// Generate returns the full WEBVTT document for script.
func Generate(script string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, cue := range Cues(script) {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", cue.Index, Timestamp(cue.Start), Timestamp(cue.End), cue.Text)
	}
	return b.String()
}

// Timestamp formats d as HH:MM:SS.mmm.
func Timestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}
