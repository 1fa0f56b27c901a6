package media

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Runner executes ffmpeg/ffprobe invocations. Every call is a blocking
// subprocess with stdout and stderr captured; a per-invocation timeout bounds
// worst-case resource use.
type Runner struct {
	FFmpegBin  string
	FFprobeBin string
	Timeout    time.Duration
}

func NewRunner(ffmpegBin, ffprobeBin string, timeout time.Duration) *Runner {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &Runner{FFmpegBin: ffmpegBin, FFprobeBin: ffprobeBin, Timeout: timeout}
}

type cmdResult struct {
	stdout string
	stderr string
}

func (r *Runner) run(ctx context.Context, bin string, args []string) (cmdResult, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return cmdResult{stdout: stdout.String(), stderr: stderr.String()}, err
}
