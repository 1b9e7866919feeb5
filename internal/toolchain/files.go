package toolchain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	// PagePrefix is the file prefix handed to the rasterizer.
	PagePrefix = "page"
	// SlidePattern is the normalized slide naming the encoder reads.
	SlidePattern = "slide-%04d.png"
)

// SlideName returns the file name of the 1-based slide index.
func SlideName(index int) string {
	return fmt.Sprintf(SlidePattern, index)
}

// CollectPages lists <prefix>-<n>.png files in dir ordered by page number.
// The rasterizer zero-pads according to page count, so ordering is numeric.
func CollectPages(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type page struct {
		num  int
		path string
	}
	var pages []page
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix+"-") || strings.ToLower(filepath.Ext(name)) != ".png" {
			continue
		}
		digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), filepath.Ext(name))
		num, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		pages = append(pages, page{num: num, path: filepath.Join(dir, name)})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.path
	}
	return out, nil
}

// ConcatList renders the ffmpeg concat demuxer script for paths.
func ConcatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// ParseDuration reads ffprobe's JSON output and rounds the duration up to whole seconds.
func ParseDuration(output string) (int, error) {
	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		return 0, fmt.Errorf("ffprobe parse: %w", err)
	}
	raw := strings.TrimSpace(payload.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, errors.New("ffprobe: duration unavailable")
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		return 0, fmt.Errorf("ffprobe: invalid duration %q", raw)
	}
	return int(math.Ceil(secs)), nil
}
