// Package transcript exports a narration script as a Word document.
package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	FileName  = "transcript.docx"
	fontName  = "Times New Roman"
	fontSize  = 13
	titleSize = 16
)

var (
	reHeading = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	reBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reSpeaker = regexp.MustCompile(`(?i)^(alex|sam)\s*:\s*(.*)$`)
)

// Line is one rendered paragraph of the transcript.
type Line struct {
	Speaker string
	Text    string
	Heading bool
}

// Lines turns a raw script into transcript paragraphs. Blank lines and
// horizontal rules are dropped; speaker labels are split off.
func Lines(script string) []Line {
	var out []Line
	for _, raw := range strings.Split(strings.ReplaceAll(script, "\r", ""), "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || trimmed == "---" {
			continue
		}
		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			out = append(out, Line{Text: m[1], Heading: true})
			continue
		}
		if m := reSpeaker.FindStringSubmatch(trimmed); m != nil {
			out = append(out, Line{Speaker: titleCase(m[1]), Text: m[2]})
			continue
		}
		out = append(out, Line{Text: trimmed})
	}
	return out
}

// Write renders title and script to outputPath.
func Write(title, script, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	addStyledRun(doc.AddParagraph(""), title, true, titleSize)

	for _, line := range Lines(script) {
		p := doc.AddParagraph("")
		switch {
		case line.Heading:
			addStyledRun(p, line.Text, true, fontSize+1)
		case line.Speaker != "":
			addStyledRun(p, line.Speaker+": ", true, fontSize)
			addRichText(p, line.Text)
		default:
			addRichText(p, line.Text)
		}
	}

	if err := doc.SaveTo(outputPath); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(cleanInline(text)).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

// addRichText keeps **bold** spans bold and drops other inline markup.
func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(cleanInline(part)).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			p.AddText(cleanInline(matches[i][1])).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}

func cleanInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}

func titleCase(s string) string {
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}
