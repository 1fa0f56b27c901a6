package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/models"
)

func TestXfadeOffsets(t *testing.T) {
	tests := []struct {
		name      string
		durations []float64
		t         float64
		want      []float64
	}{
		{
			name:      "three equal parts",
			durations: []float64{5, 5, 5},
			t:         1,
			want:      []float64{4, 8},
		},
		{
			name:      "two parts",
			durations: []float64{10, 3},
			t:         0.5,
			want:      []float64{9.5},
		},
		{
			name:      "uneven parts",
			durations: []float64{2, 4, 6, 8},
			t:         1,
			// cum: 2 → offset 1; cum 2+4-1=5 → offset 4; cum 5+6-1=10 → offset 9
			want: []float64{1, 4, 9},
		},
		{
			name:      "transition longer than first part clamps to zero",
			durations: []float64{0.5, 5},
			t:         1,
			want:      []float64{0},
		},
		{
			name:      "single part has no fades",
			durations: []float64{5},
			t:         1,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := xfadeOffsets(tt.durations, tt.t)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestTransitionGraphGolden(t *testing.T) {
	g := transitionGraph([]float64{5, 5, 5}, models.TransitionFade, 1)

	want := "[0:v][1:v]xfade=transition=fade:duration=1:offset=4[v01];" +
		"[v01][2:v]xfade=transition=fade:duration=1:offset=8[vout];" +
		"[0:a][1:a]acrossfade=d=1:c1=tri:c2=tri[a01];" +
		"[a01][2:a]acrossfade=d=1:c1=tri:c2=tri[aout]"

	assert.Equal(t, want, g.String())
}

func TestTransitionGraphTwoParts(t *testing.T) {
	g := transitionGraph([]float64{4, 6}, models.TransitionDissolve, 0.5)

	want := "[0:v][1:v]xfade=transition=dissolve:duration=0.5:offset=3.5[vout];" +
		"[0:a][1:a]acrossfade=d=0.5:c1=tri:c2=tri[aout]"

	assert.Equal(t, want, g.String())
}

func TestVerticalCompositeGolden(t *testing.T) {
	g := verticalComposite(1080, 1920, 30)

	want := "[0:v]scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920," +
		"gblur=sigma=20,fps=30,format=yuv420p,setpts=N/(30*TB)[bg];" +
		"[0:v]scale=1080:1920:force_original_aspect_ratio=decrease," +
		"pad=1080:1920:(ow-iw)/2:(oh-ih)/2,fps=30,format=yuv420p,setpts=N/(30*TB)[fg];" +
		"[bg][fg]overlay=(W-w)/2:(H-h)/2"

	assert.Equal(t, want, g.String())
}

func TestGraphString(t *testing.T) {
	g := Graph{
		{Inputs: []string{"0:v"}, Expr: "fps=30", Outputs: []string{"v0"}},
		{Inputs: []string{"v0", "1:v"}, Expr: "overlay", Outputs: nil},
	}
	assert.Equal(t, "[0:v]fps=30[v0];[v0][1:v]overlay", g.String())
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "4", formatSeconds(4))
	assert.Equal(t, "0.5", formatSeconds(0.5))
	assert.Equal(t, "9.5", formatSeconds(9.5))
}

func TestFormatSecondsNeverScientific(t *testing.T) {
	assert.Equal(t, "0.00001", formatSeconds(0.00001))
	assert.Equal(t, "0.0000001", formatSeconds(1e-7))
	assert.Equal(t, "12345678.5", formatSeconds(12345678.5))
}
