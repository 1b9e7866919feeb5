// Package timing decides how long each slide stays on screen.
package timing

import (
	"fmt"
	"math"
)

const (
	DefaultFloorSeconds = 3
	DefaultFPS          = 30
)

// Input carries everything the planner needs. NarrationSeconds <= 0 means
// there is no narration track.
type Input struct {
	NarrationSeconds int
	RequestedSeconds int
	SlideCount       int
	FPS              int
	FloorSeconds     int
}

// Plan is the resolved slide timing for one encode.
type Plan struct {
	TotalSeconds    int
	PerSlideSeconds int
	SlideCount      int
	FPS             int
	FramesPerSlide  int
	NarrationDriven bool
}

// Chapter marks the span of one slide in the output video.
type Chapter struct {
	Index    int
	StartSec float64
	EndSec   float64
	Title    string
}

// Compute builds the plan. Narration length, when present, overrides the
// requested duration.
func Compute(in Input) Plan {
	floor := in.FloorSeconds
	if floor <= 0 {
		floor = DefaultFloorSeconds
	}
	fps := in.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	slides := in.SlideCount
	if slides < 1 {
		slides = 1
	}

	plan := Plan{SlideCount: slides, FPS: fps}
	if in.NarrationSeconds > 0 {
		plan.TotalSeconds = in.NarrationSeconds
		plan.NarrationDriven = true
	} else {
		plan.TotalSeconds = max(in.RequestedSeconds, floor)
	}

	perSlide := int(math.Round(float64(plan.TotalSeconds) / float64(slides)))
	plan.PerSlideSeconds = max(floor, perSlide)
	plan.FramesPerSlide = plan.PerSlideSeconds * fps
	return plan
}

// InputFrameRate is the rate at which slide images are read, as a rational.
func (p Plan) InputFrameRate() string {
	return fmt.Sprintf("1/%d", p.PerSlideSeconds)
}

// VideoSeconds is the length of the slide sequence before any audio trimming.
func (p Plan) VideoSeconds() int {
	return p.PerSlideSeconds * p.SlideCount
}

// Chapters returns one chapter per slide.
func (p Plan) Chapters() []Chapter {
	out := make([]Chapter, 0, p.SlideCount)
	for i := 0; i < p.SlideCount; i++ {
		start := float64(i * p.PerSlideSeconds)
		out = append(out, Chapter{
			Index:    i + 1,
			StartSec: start,
			EndSec:   start + float64(p.PerSlideSeconds),
			Title:    fmt.Sprintf("Slide %d", i+1),
		})
	}
	return out
}
