package media

import (
	"fmt"
	"strconv"
	"strings"

	"clipforge/internal/models"
)

// FilterStage is one node of an ffmpeg filter_complex expression: named input
// pads, the filter chain itself, and named output pads.
type FilterStage struct {
	Inputs  []string
	Expr    string
	Outputs []string
}

// Graph is an ordered list of filter stages. Keeping the offset/duration math
// on typed stages keeps it testable independent of string formatting.
type Graph []FilterStage

func (g Graph) String() string {
	parts := make([]string, len(g))
	for i, stage := range g {
		var sb strings.Builder
		for _, in := range stage.Inputs {
			sb.WriteString("[" + in + "]")
		}
		sb.WriteString(stage.Expr)
		for _, out := range stage.Outputs {
			sb.WriteString("[" + out + "]")
		}
		parts[i] = sb.String()
	}
	return strings.Join(parts, ";")
}

// formatSeconds renders a duration or offset without trailing zeros. Fixed
// notation only: the filter parser does not accept exponent forms like 1e-05.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// scaleFitPad letterboxes the input onto a w×h canvas: scale to fit, pad
// centered, constant framerate, standard pixel format.
func scaleFitPad(w, h, fps int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d,format=yuv420p",
		w, h, w, h, fps,
	)
}

// verticalComposite builds the branded two-layer vertical look: a blurred
// scale-to-cover background with the letterboxed foreground centered over it.
func verticalComposite(w, h, fps int) Graph {
	bg := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,gblur=sigma=20,fps=%d,format=yuv420p,setpts=N/(%d*TB)",
		w, h, w, h, fps, fps,
	)
	fg := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d,format=yuv420p,setpts=N/(%d*TB)",
		w, h, w, h, fps, fps,
	)
	return Graph{
		{Inputs: []string{"0:v"}, Expr: bg, Outputs: []string{"bg"}},
		{Inputs: []string{"0:v"}, Expr: fg, Outputs: []string{"fg"}},
		{Inputs: []string{"bg", "fg"}, Expr: "overlay=(W-w)/2:(H-h)/2"},
	}
}

// xfadeOffsets computes where each cross-fade starts. For parts with durations
// d0..d(n-1) and transition length t, the fade onto part i begins at
// cum_{i-1} - t (clamped to 0) and the running duration advances by d_i - t,
// which is what lands every fade on the true part boundary no matter how many
// parts are chained.
func xfadeOffsets(durations []float64, t float64) []float64 {
	if len(durations) < 2 {
		return nil
	}
	offsets := make([]float64, 0, len(durations)-1)
	cum := durations[0]
	for i := 1; i < len(durations); i++ {
		offset := cum - t
		if offset < 0 {
			offset = 0
		}
		offsets = append(offsets, offset)
		cum = cum + durations[i] - t
	}
	return offsets
}

// transitionGraph chains xfade stages for video and an independent acrossfade
// chain (triangular windows) for audio. The final pads are [vout] and [aout].
func transitionGraph(durations []float64, kind models.Transition, t float64) Graph {
	n := len(durations)
	offsets := xfadeOffsets(durations, t)

	var g Graph
	for i := 1; i < n; i++ {
		in1 := "0:v"
		if i > 1 {
			in1 = fmt.Sprintf("v%02d", i-1)
		}
		out := "vout"
		if i < n-1 {
			out = fmt.Sprintf("v%02d", i)
		}
		g = append(g, FilterStage{
			Inputs: []string{in1, fmt.Sprintf("%d:v", i)},
			Expr: fmt.Sprintf("xfade=transition=%s:duration=%s:offset=%s",
				kind, formatSeconds(t), formatSeconds(offsets[i-1])),
			Outputs: []string{out},
		})
	}
	for i := 1; i < n; i++ {
		in1 := "0:a"
		if i > 1 {
			in1 = fmt.Sprintf("a%02d", i-1)
		}
		out := "aout"
		if i < n-1 {
			out = fmt.Sprintf("a%02d", i)
		}
		g = append(g, FilterStage{
			Inputs:  []string{in1, fmt.Sprintf("%d:a", i)},
			Expr:    fmt.Sprintf("acrossfade=d=%s:c1=tri:c2=tri", formatSeconds(t)),
			Outputs: []string{out},
		})
	}
	return g
}
