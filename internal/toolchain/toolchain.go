// Package toolchain builds typed invocations of the external tools the
// pipeline depends on. Argument layout, file naming conventions and quoting
// for those tools live here and nowhere else.
package toolchain

import (
	"strconv"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/pkg/executor"
)

// Tools holds the binary names used for each capability.
type Tools struct {
	Pdftoppm  string
	Pdftotext string
	Espeak    string
	FFmpeg    string
	FFprobe   string
	// Timeout applies to blocking calls; the encode is never bounded.
	Timeout time.Duration
}

// FromConfig maps the tools section of the config.
func FromConfig(cfg config.ToolsConfig) Tools {
	t := Tools{
		Pdftoppm:  cfg.Pdftoppm,
		Pdftotext: cfg.Pdftotext,
		Espeak:    cfg.Espeak,
		FFmpeg:    cfg.FFmpeg,
		FFprobe:   cfg.FFprobe,
	}
	if cfg.TimeoutSeconds > 0 {
		t.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return t.withDefaults()
}

func (t Tools) withDefaults() Tools {
	if t.Pdftoppm == "" {
		t.Pdftoppm = "pdftoppm"
	}
	if t.Pdftotext == "" {
		t.Pdftotext = "pdftotext"
	}
	if t.Espeak == "" {
		t.Espeak = "espeak-ng"
	}
	if t.FFmpeg == "" {
		t.FFmpeg = "ffmpeg"
	}
	if t.FFprobe == "" {
		t.FFprobe = "ffprobe"
	}
	return t
}

// Rasterize renders every page of pdfPath to <outPrefix>-<page>.png.
func (t Tools) Rasterize(pdfPath, outPrefix string) executor.Command {
	return executor.Command{
		Name:    t.Pdftoppm,
		Args:    []string{"-png", "-r", "150", pdfPath, outPrefix},
		Timeout: t.Timeout,
	}
}

// ExtractText writes the plain text of pdfPath to outPath.
func (t Tools) ExtractText(pdfPath, outPath string) executor.Command {
	return executor.Command{
		Name:    t.Pdftotext,
		Args:    []string{"-enc", "UTF-8", pdfPath, outPath},
		Timeout: t.Timeout,
	}
}

// ConvertImage re-encodes a single image to the format implied by dst.
func (t Tools) ConvertImage(src, dst string) executor.Command {
	return executor.Command{
		Name:    t.FFmpeg,
		Args:    []string{"-hide_banner", "-y", "-i", src, "-frames:v", "1", dst},
		Timeout: t.Timeout,
	}
}

// Voice is an espeak-ng voice and pacing profile.
type Voice struct {
	Name      string
	Speed     int
	Pitch     int
	Amplitude int
	Gap       int
}

// Speak synthesizes the text in textPath to wavPath.
func (t Tools) Speak(v Voice, textPath, wavPath string) executor.Command {
	return executor.Command{
		Name: t.Espeak,
		Args: []string{
			"-v", v.Name,
			"-s", strconv.Itoa(v.Speed),
			"-p", strconv.Itoa(v.Pitch),
			"-a", strconv.Itoa(v.Amplitude),
			"-g", strconv.Itoa(v.Gap),
			"-w", wavPath,
			"-f", textPath,
		},
		Timeout: t.Timeout,
	}
}

// Silence generates a mono silent clip of the given length.
func (t Tools) Silence(d time.Duration, sampleRate int, wavPath string) executor.Command {
	return executor.Command{
		Name: t.FFmpeg,
		Args: []string{
			"-hide_banner", "-y",
			"-f", "lavfi",
			"-i", "anullsrc=r=" + strconv.Itoa(sampleRate) + ":cl=mono",
			"-t", strconv.FormatFloat(d.Seconds(), 'f', 2, 64),
			wavPath,
		},
		Timeout: t.Timeout,
	}
}

// Concat joins the clips listed in listPath (see ConcatList) into one PCM track.
func (t Tools) Concat(listPath string, sampleRate int, outPath string) executor.Command {
	return executor.Command{
		Name: t.FFmpeg,
		Args: []string{
			"-hide_banner", "-y",
			"-f", "concat", "-safe", "0",
			"-i", listPath,
			"-ar", strconv.Itoa(sampleRate),
			"-ac", "1",
			"-c:a", "pcm_s16le",
			outPath,
		},
		Timeout: t.Timeout,
	}
}

// ProbeDuration asks ffprobe for the container duration as JSON.
func (t Tools) ProbeDuration(path string) executor.Command {
	return executor.Command{
		Name: t.FFprobe,
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "json",
			"--", path,
		},
		Timeout: t.Timeout,
	}
}

// Encode wraps an assembled ffmpeg argument list.
func (t Tools) Encode(args []string) executor.Command {
	return executor.Command{Name: t.FFmpeg, Args: args}
}
