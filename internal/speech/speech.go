package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/joblog"
	"github.com/nguyentantai21042004/noteflix/internal/textclean"
	"github.com/nguyentantai21042004/noteflix/internal/toolchain"
	"github.com/nguyentantai21042004/noteflix/pkg/executor"
)

// Synthesize produces narration.wav in the work dir, or nothing.
func (s *implSynthesizer) Synthesize(ctx context.Context, req Request) Narration {
	var (
		path string
		err  error
	)
	if req.Dialogue == domain.DialogueDuet {
		path, err = s.duet(ctx, req)
	} else {
		path, err = s.single(ctx, req)
	}
	if err != nil {
		req.Log.Printf("WARN: %v; proceeding captions-only.", err)
		s.logger.Warn(ctx, "Narration skipped: %v", err)
		return Narration{}
	}

	seconds, err := s.probe(ctx, path, req.Log)
	if err != nil {
		req.Log.Printf("WARN: narration duration unavailable: %v", err)
		s.logger.Warn(ctx, "Could not probe narration: %v", err)
	}
	s.logger.Info(ctx, "Narration ready: %s (%ds)", path, seconds)
	return Narration{Path: path, Seconds: seconds}
}

func (s *implSynthesizer) single(ctx context.Context, req Request) (string, error) {
	if !s.executor.Available(s.tools.Espeak) {
		return "", fmt.Errorf("%s not found", s.tools.Espeak)
	}

	text := textclean.Clean(req.Script)
	if text == "" {
		return "", fmt.Errorf("nothing to narrate")
	}
	ttsPath := filepath.Join(req.WorkDir, TTSFile)
	if err := os.WriteFile(ttsPath, []byte(text+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write tts text: %w", err)
	}

	out := filepath.Join(req.WorkDir, NarrationFile)
	if err := s.run(ctx, s.tools.Speak(s.solo, ttsPath, out), out, req.Log); err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}
	return out, nil
}

func (s *implSynthesizer) duet(ctx context.Context, req Request) (string, error) {
	if !s.executor.Available(s.tools.Espeak) {
		return "", fmt.Errorf("%s not found", s.tools.Espeak)
	}
	if !s.executor.Available(s.tools.FFmpeg) {
		return "", fmt.Errorf("%s not found", s.tools.FFmpeg)
	}

	segments := textclean.SplitDuet(req.Script)
	if len(segments) == 0 {
		return "", fmt.Errorf("nothing to narrate")
	}

	var transcript strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&transcript, "%s: %s\n", seg.Speaker, seg.Text)
	}
	if err := os.WriteFile(filepath.Join(req.WorkDir, TTSFile), []byte(transcript.String()), 0o644); err != nil {
		return "", fmt.Errorf("write tts text: %w", err)
	}

	clips := make([]string, 0, len(segments))
	for i, seg := range segments {
		textPath := filepath.Join(req.WorkDir, fmt.Sprintf("seg-%03d.txt", i+1))
		wavPath := filepath.Join(req.WorkDir, fmt.Sprintf("seg-%03d.wav", i+1))
		if err := os.WriteFile(textPath, []byte(seg.Text+"\n"), 0o644); err != nil {
			return "", fmt.Errorf("write segment %d: %w", i+1, err)
		}
		voice, ok := duetVoices[seg.Speaker]
		if !ok {
			voice = duetVoices[textclean.SpeakerAlex]
		}
		if err := s.run(ctx, s.tools.Speak(voice, textPath, wavPath), wavPath, req.Log); err != nil {
			return "", fmt.Errorf("duet segment %d failed: %w", i+1, err)
		}
		clips = append(clips, wavPath)
	}

	playlist := clips
	if len(clips) > 1 {
		silence := filepath.Join(req.WorkDir, "silence.wav")
		if err := s.run(ctx, s.tools.Silence(TurnGap, SampleRate, silence), silence, req.Log); err != nil {
			return "", fmt.Errorf("silence generation failed: %w", err)
		}
		playlist = interleave(clips, silence)
	}

	listPath := filepath.Join(req.WorkDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(toolchain.ConcatList(playlist)), 0o644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}

	out := filepath.Join(req.WorkDir, NarrationFile)
	if err := s.run(ctx, s.tools.Concat(listPath, SampleRate, out), out, req.Log); err != nil {
		return "", fmt.Errorf("duet concat failed: %w", err)
	}
	return out, nil
}

// run executes cmd and requires it to leave a non-empty file at want.
func (s *implSynthesizer) run(ctx context.Context, cmd executor.Command, want string, log *joblog.Log) error {
	res, err := s.executor.Run(ctx, cmd)
	log.Command(cmd, res)
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("%s exited with status %d", cmd.Name, res.ExitCode)
	}
	info, err := os.Stat(want)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%s produced no output", cmd.Name)
	}
	return nil
}

func (s *implSynthesizer) probe(ctx context.Context, path string, log *joblog.Log) (int, error) {
	cmd := s.tools.ProbeDuration(path)
	res, err := s.executor.Run(ctx, cmd)
	if err != nil {
		return 0, err
	}
	if !res.Success() {
		log.Command(cmd, res)
		return 0, fmt.Errorf("ffprobe exited with status %d", res.ExitCode)
	}
	return toolchain.ParseDuration(res.Stdout)
}

// interleave places sep between consecutive clips.
func interleave(clips []string, sep string) []string {
	out := make([]string, 0, len(clips)*2-1)
	for i, c := range clips {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, c)
	}
	return out
}
