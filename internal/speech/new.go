package speech

import (
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
	"github.com/nguyentantai21042004/noteflix/internal/textclean"
	"github.com/nguyentantai21042004/noteflix/internal/toolchain"
	"github.com/nguyentantai21042004/noteflix/pkg/executor"
)

const (
	// SampleRate of the concatenated duet track.
	SampleRate = 44100
	// TurnGap is the pause inserted between duet turns.
	TurnGap = 200 * time.Millisecond

	NarrationFile = "narration.wav"
	TTSFile       = "tts.txt"
)

// duetVoices gives each speaker a distinct voice and pacing.
var duetVoices = map[string]toolchain.Voice{
	textclean.SpeakerAlex: {Name: "en+f3", Speed: 145, Pitch: 48, Amplitude: 140, Gap: 10},
	textclean.SpeakerSam:  {Name: "en+m3", Speed: 148, Pitch: 42, Amplitude: 140, Gap: 10},
}

type implSynthesizer struct {
	executor executor.Executor
	tools    toolchain.Tools
	solo     toolchain.Voice
	logger   logger.Logger
}

// New creates a Synthesizer using the configured solo voice.
func New(exec executor.Executor, tools toolchain.Tools, cfg config.SpeechConfig, log logger.Logger) Synthesizer {
	solo := toolchain.Voice{Name: "en+f3", Speed: 150, Pitch: 45, Amplitude: 140, Gap: 8}
	if cfg.Voice != "" {
		solo.Name = cfg.Voice
	}
	if cfg.WordsPerMinute > 0 {
		solo.Speed = cfg.WordsPerMinute
	}
	return &implSynthesizer{
		executor: exec,
		tools:    tools,
		solo:     solo,
		logger:   log,
	}
}
