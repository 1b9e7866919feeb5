// Package textclean turns generated scripts into text a speech engine can read aloud.
package textclean

import (
	"regexp"
	"strings"
)

const (
	SpeakerAlex = "alex"
	SpeakerSam  = "sam"
)

// Segment is one speaker turn of a duet script.
type Segment struct {
	Speaker string
	Text    string
}

var (
	reSpeakerLabel = regexp.MustCompile(`(?im)^[ \t]*(?:\*\*)?(?:alex|sam|narrator|host|speaker[ \t]*\d+)(?:\*\*)?[ \t]*:[ \t]*`)
	reDuetLabel    = regexp.MustCompile(`(?i)^(?:\*\*)?(alex|sam)(?:\*\*)?\s*:\s*(.*)$`)
	reStageDir     = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	reHeading      = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	reBullet       = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|•)[ \t]+`)
	reEmphasis     = regexp.MustCompile("\\*\\*|__|[*_`~]")
	reSpaces       = regexp.MustCompile(`\s+`)
	reSpaceBefore  = regexp.MustCompile(` +([.,!?;:])`)
)

var typographic = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"–", "-", "—", " - ",
	"…", "...", " ", " ",
)

// Clean strips labels, stage directions, markdown and decoration, and
// returns single-line text safe to hand to a speech engine.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = typographic.Replace(text)
	text = reSpeakerLabel.ReplaceAllString(text, "")
	text = reStageDir.ReplaceAllString(text, "")
	text = reHeading.ReplaceAllString(text, "")
	text = reBullet.ReplaceAllString(text, "")
	text = reEmphasis.ReplaceAllString(text, "")
	text = asciiOnly(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	// line breaks become sentence breaks
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
		if i < len(lines)-1 && !endsSentence(line) {
			b.WriteByte('.')
		}
	}

	text = reSpaces.ReplaceAllString(b.String(), " ")
	text = reSpaceBefore.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// SplitDuet splits a script into ordered speaker turns. Explicit Alex/Sam
// labels win; otherwise sentences alternate starting with Alex.
func SplitDuet(script string) []Segment {
	var (
		segs     []Segment
		labelled bool
	)
	for _, line := range strings.Split(strings.ReplaceAll(script, "\r", ""), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := reDuetLabel.FindStringSubmatch(line); m != nil {
			labelled = true
			segs = append(segs, Segment{Speaker: strings.ToLower(m[1]), Text: m[2]})
			continue
		}
		// unlabelled lines continue the previous turn
		if labelled {
			segs[len(segs)-1].Text += "\n" + line
		}
	}

	if labelled {
		out := make([]Segment, 0, len(segs))
		for _, seg := range segs {
			if text := Clean(seg.Text); text != "" {
				out = append(out, Segment{Speaker: seg.Speaker, Text: text})
			}
		}
		return out
	}

	sentences := Sentences(Clean(script))
	out := make([]Segment, 0, len(sentences))
	for i, s := range sentences {
		speaker := SpeakerAlex
		if i%2 == 1 {
			speaker = SpeakerSam
		}
		out = append(out, Segment{Speaker: speaker, Text: s})
	}
	return out
}

// Sentences splits text after '.', '!' or '?' when followed by whitespace.
func Sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		j := i + 1
		if j < len(text) && !isSpace(text[j]) {
			continue
		}
		if s := strings.TrimSpace(text[start:j]); s != "" {
			out = append(out, s)
		}
		start = j
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asciiOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || (r >= 0x20 && r < 0x7f) {
			return r
		}
		return -1
	}, s)
}

func endsSentence(line string) bool {
	last := line[len(line)-1]
	return isTerminator(last) || last == ':' || last == ';' || last == ','
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
