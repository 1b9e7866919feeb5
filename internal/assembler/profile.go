package assembler

import (
	"sort"
	"strconv"
)

// PassStrategy decides how many encoder passes a profile runs and the codec
// arguments of each pass.
type PassStrategy interface {
	Passes() int
	codecArgs(pass int) []string
}

// SinglePass is a constant-quality single encode.
type SinglePass struct {
	Preset string
	CRF    int
}

func (SinglePass) Passes() int { return 1 }

func (s SinglePass) codecArgs(int) []string {
	return []string{"-c:v", "libx264", "-preset", s.Preset, "-crf", strconv.Itoa(s.CRF)}
}

// TwoPass is a bitrate-targeted encode with an analysis pass.
type TwoPass struct {
	Preset  string
	Bitrate string
}

func (TwoPass) Passes() int { return 2 }

func (t TwoPass) codecArgs(pass int) []string {
	return []string{"-c:v", "libx264", "-preset", t.Preset, "-b:v", t.Bitrate, "-pass", strconv.Itoa(pass)}
}

// Interpolation selects the minterpolate mode; empty disables it.
type Interpolation string

const (
	InterpolateNone   Interpolation = ""
	InterpolateBlend  Interpolation = "blend"
	InterpolateMotion Interpolation = "mci"
)

// Profile is a named quality/cost bundle.
type Profile struct {
	Name          string
	Width         int
	Height        int
	FPS           int
	Interpolation Interpolation
	Pass          PassStrategy
}

const DefaultProfile = "balanced"

var profiles = map[string]Profile{
	"balanced": {
		Name: "balanced", Width: 1920, Height: 1080, FPS: 30,
		Pass: SinglePass{Preset: "slow", CRF: 20},
	},
	"heavy": {
		Name: "heavy", Width: 2560, Height: 1440, FPS: 48,
		Interpolation: InterpolateBlend,
		Pass:          TwoPass{Preset: "slow", Bitrate: "16M"},
	},
	"insane": {
		Name: "insane", Width: 3840, Height: 2160, FPS: 60,
		Interpolation: InterpolateMotion,
		Pass:          TwoPass{Preset: "slower", Bitrate: "40M"},
	},
}

// Lookup returns the named profile. An empty name selects DefaultProfile.
func Lookup(name string) (Profile, bool) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := profiles[name]
	return p, ok
}

// Names lists the known profiles in sorted order.
func Names() []string {
	out := make([]string, 0, len(profiles))
	for name := range profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
