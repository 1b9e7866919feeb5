package assembler

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/noteflix/internal/timing"
)

// FilterChain builds the -vf graph for one slide sequence.
func FilterChain(p Profile, plan timing.Plan) string {
	size := fmt.Sprintf("%dx%d", p.Width, p.Height)
	filters := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", p.Width, p.Height),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black", p.Width, p.Height),
		"setsar=1",
		fmt.Sprintf("zoompan=z='min(zoom+0.0008,1.15)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%s:fps=%d",
			plan.FramesPerSlide, size, plan.FPS),
		"unsharp=5:5:0.6:5:5:0.0",
		"eq=contrast=1.04:brightness=0.01:saturation=1.08",
	}

	switch p.Interpolation {
	case InterpolateBlend:
		filters = append(filters, fmt.Sprintf("minterpolate=fps=%d:mi_mode=blend", p.FPS))
	case InterpolateMotion:
		filters = append(filters, fmt.Sprintf("minterpolate=fps=%d:mi_mode=mci:mc_mode=aobmc:me_mode=bidir:vsbmc=1", p.FPS))
	}

	filters = append(filters, "format=yuv420p")
	return strings.Join(filters, ",")
}
