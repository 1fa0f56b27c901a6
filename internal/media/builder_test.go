package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// argAfter returns the argument following the first occurrence of flag.
func argAfter(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
	return ""
}

func TestNormalizeArgsSilentSource(t *testing.T) {
	vf := scaleFitPad(verticalWidth, verticalHeight, canvasFPS)
	args := normalizeArgs("in.mp4", "out.mp4", vf, false, false, 12.5)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-f lavfi -i anullsrc=channel_layout=stereo:sample_rate=48000")
	assert.Contains(t, joined, "-map [v] -map [a]")

	wantFilter := "[0:v]" + vf + "[v];[1:a]atrim=0:12.5,asetpts=PTS-STARTPTS[a]"
	assert.Equal(t, wantFilter, argAfter(t, args, "-filter_complex"))

	// silence is re-encoded, never stream-copied
	assert.Contains(t, joined, "-c:a aac")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestNormalizeArgsWithAudio(t *testing.T) {
	vf := scaleFitPad(horizontalWidth, horizontalHeight, canvasFPS)
	args := normalizeArgs("in.mp4", "out.mp4", vf, true, true, 0)

	joined := strings.Join(args, " ")
	assert.NotContains(t, joined, "anullsrc")
	assert.NotContains(t, joined, "-filter_complex")
	assert.Equal(t, vf, argAfter(t, args, "-vf"))
	assert.Contains(t, joined, "-c:v h264_nvenc")
	assert.Contains(t, joined, "-ar 48000")
	assert.Contains(t, joined, "-movflags +faststart")
}

func TestVideoEncodeArgsProfiles(t *testing.T) {
	hw := strings.Join(videoEncodeArgs(true), " ")
	sw := strings.Join(videoEncodeArgs(false), " ")

	require.Contains(t, hw, "h264_nvenc")
	require.Contains(t, hw, "-cq 19")
	require.Contains(t, sw, "libx264")
	require.Contains(t, sw, "-crf 20")
	assert.Contains(t, hw, "yuv420p")
	assert.Contains(t, sw, "yuv420p")
}
