package media

import (
	"context"
	"strconv"
	"strings"
)

// Probe answers questions about media files via ffprobe.
type Probe struct {
	runner *Runner
}

func NewProbe(r *Runner) *Probe {
	return &Probe{runner: r}
}

// Duration returns the container duration in seconds. Files without a parsable
// duration stream yield a ProbeError.
func (p *Probe) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	res, err := p.runner.run(ctx, p.runner.FFprobeBin, args)
	if err != nil {
		return 0, &ProbeError{Path: path, Stderr: res.stderr, Err: err}
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(res.stdout), 64)
	if err != nil {
		return 0, &ProbeError{Path: path, Stderr: res.stdout, Err: err}
	}
	return dur, nil
}

// HasAudio reports whether the file has at least one audio stream. A file
// without audio is not an error.
func (p *Probe) HasAudio(ctx context.Context, path string) (bool, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	}
	res, err := p.runner.run(ctx, p.runner.FFprobeBin, args)
	if err != nil {
		return false, &ProbeError{Path: path, Stderr: res.stderr, Err: err}
	}
	return strings.TrimSpace(res.stdout) != "", nil
}

// Dimensions returns the first video stream's width and height, or ok=false
// when they cannot be determined. Unavailable dimensions are not an error.
func (p *Probe) Dimensions(ctx context.Context, path string) (width, height int, ok bool) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	}
	res, err := p.runner.run(ctx, p.runner.FFprobeBin, args)
	if err != nil {
		return 0, 0, false
	}
	parts := strings.Split(strings.TrimSpace(res.stdout), "x")
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// SupportsHardwareEncode reports whether the NVENC H.264 encoder is available.
// The result is advisory: it selects an encode profile, correctness never
// depends on it.
func (p *Probe) SupportsHardwareEncode(ctx context.Context) bool {
	res, err := p.runner.run(ctx, p.runner.FFmpegBin, []string{"-hide_banner", "-encoders"})
	if err != nil {
		return false
	}
	return strings.Contains(res.stdout, "h264_nvenc")
}
