package speech

import (
	"context"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/joblog"
)

// Synthesizer renders a script to a narration track. It never fails the
// job: every problem degrades to a Narration without a Path.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) Narration
}

// Request is the input for one narration.
type Request struct {
	Script   string
	Dialogue domain.Dialogue
	WorkDir  string
	Log      *joblog.Log
}

// Narration is the synthesized track. Seconds is 0 when the length could not be probed.
type Narration struct {
	Path    string
	Seconds int
}

// Present reports whether a narration track was produced.
func (n Narration) Present() bool {
	return n.Path != ""
}
