package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipforge/internal/models"
)

// Fixed canvases — every part is normalized to one of these before concat.
const (
	verticalWidth    = 1080
	verticalHeight   = 1920
	horizontalWidth  = 1920
	horizontalHeight = 1080
	canvasFPS        = 30

	audioBitrate    = "160k"
	audioSampleRate = "48000"
)

// Builder constructs and executes ffmpeg invocations. All methods are
// declarative parameter → argument-vector mappings; the only state is the
// runner and its probe.
type Builder struct {
	runner *Runner
	probe  *Probe
}

func NewBuilder(r *Runner) *Builder {
	return &Builder{runner: r, probe: NewProbe(r)}
}

// Probe exposes the builder's probe for callers that need durations or
// hardware detection.
func (b *Builder) Probe() *Probe { return b.probe }

// videoEncodeArgs selects the encode profile: NVENC constant-quality when
// hardware is available, libx264 constant-rate-factor otherwise.
func videoEncodeArgs(hw bool) []string {
	if hw {
		return []string{"-c:v", "h264_nvenc", "-preset", "p4", "-cq", "19", "-pix_fmt", "yuv420p"}
	}
	return []string{"-c:v", "libx264", "-preset", "veryfast", "-crf", "20", "-pix_fmt", "yuv420p"}
}

// audioEncodeArgs encodes aac when the source has audio, otherwise drops the
// audio stream entirely. Silence is never synthesized at this stage; that
// happens only in NormalizeForConcat where uniform stream layout is required.
func audioEncodeArgs(hasAudio bool) []string {
	if hasAudio {
		return []string{"-c:a", "aac", "-b:a", audioBitrate}
	}
	return []string{"-an"}
}

func commonMP4Flags() []string {
	return []string{"-movflags", "+faststart"}
}

func (b *Builder) ffmpeg(ctx context.Context, op string, args []string) error {
	res, err := b.runner.run(ctx, b.runner.FFmpegBin, args)
	if err != nil {
		return &EncodeError{Op: op, Stderr: res.stderr, Err: err}
	}
	return nil
}

// CutClip trims input to [startTC, endTC) and re-encodes with the chosen
// profile. Ranges invalid for the input's duration surface as the encoder's
// own error; they are not pre-validated here.
func (b *Builder) CutClip(ctx context.Context, input, startTC, endTC, output string, hw bool) error {
	hasAudio, _ := b.probe.HasAudio(ctx, input)

	args := []string{"-y", "-ss", startTC, "-to", endTC, "-i", input}
	args = append(args, videoEncodeArgs(hw)...)
	args = append(args, audioEncodeArgs(hasAudio)...)
	args = append(args, commonMP4Flags()...)
	args = append(args, output)

	return b.ffmpeg(ctx, "cut", args)
}

// ReframeVertical renders the input onto the 1080x1920 30fps vertical canvas
// using the two-layer branded composite: blurred cover background with the
// letterboxed foreground centered on top.
func (b *Builder) ReframeVertical(ctx context.Context, input, output string, hw bool) error {
	hasAudio, _ := b.probe.HasAudio(ctx, input)
	graph := verticalComposite(verticalWidth, verticalHeight, canvasFPS)

	args := []string{"-y", "-i", input, "-filter_complex", graph.String()}
	args = append(args, videoEncodeArgs(hw)...)
	args = append(args, audioEncodeArgs(hasAudio)...)
	args = append(args, commonMP4Flags()...)
	args = append(args, output)

	return b.ffmpeg(ctx, "reframe vertical", args)
}

// normalizeArgs builds the argument vector for NormalizeForConcat. Split from
// the exec path so the silent-source mux can be asserted without running
// ffmpeg. durationSec is only consulted when hasAudio is false.
func normalizeArgs(input, output, vf string, hw, hasAudio bool, durationSec float64) []string {
	var args []string
	if hasAudio {
		args = []string{"-y", "-i", input, "-vf", vf}
		args = append(args, videoEncodeArgs(hw)...)
		args = append(args, "-c:a", "aac", "-b:a", audioBitrate, "-ar", audioSampleRate)
	} else {
		filter := fmt.Sprintf("[0:v]%s[v];[1:a]atrim=0:%s,asetpts=PTS-STARTPTS[a]", vf, formatSeconds(durationSec))
		args = []string{
			"-y", "-i", input,
			"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=" + audioSampleRate,
			"-filter_complex", filter,
			"-map", "[v]", "-map", "[a]",
		}
		args = append(args, videoEncodeArgs(hw)...)
		args = append(args, "-c:a", "aac", "-b:a", audioBitrate)
	}
	args = append(args, commonMP4Flags()...)
	args = append(args, output)
	return args
}

// NormalizeForConcat re-encodes a part to the common canvas so arbitrary
// inputs become concatenation-compatible. Inputs without audio get a silent
// track trimmed to the probed duration: the concat demuxer requires every
// part to share the same stream layout.
func (b *Builder) NormalizeForConcat(ctx context.Context, input, output string, hw, vertical bool) error {
	w, h := horizontalWidth, horizontalHeight
	if vertical {
		w, h = verticalWidth, verticalHeight
	}
	vf := scaleFitPad(w, h, canvasFPS)

	hasAudio, err := b.probe.HasAudio(ctx, input)
	if err != nil {
		return err
	}

	var dur float64
	if !hasAudio {
		dur, err = b.probe.Duration(ctx, input)
		if err != nil {
			return err
		}
	}

	return b.ffmpeg(ctx, "normalize", normalizeArgs(input, output, vf, hw, hasAudio, dur))
}

// ConcatCopy stream-copies already-normalized parts into one file via the
// concat demuxer. All parts sharing codec/format is an invariant upheld by
// always routing through NormalizeForConcat first.
func (b *Builder) ConcatCopy(ctx context.Context, parts []string, output, workdir string) error {
	listPath := filepath.Join(workdir, "concat_list.txt")
	var sb strings.Builder
	for _, p := range parts {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		escaped := strings.ReplaceAll(filepath.ToSlash(abs), "'", "'\\''")
		fmt.Fprintf(&sb, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}

	args := []string{
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
	}
	args = append(args, commonMP4Flags()...)
	args = append(args, output)

	return b.ffmpeg(ctx, "concat(copy)", args)
}

// ConcatWithTransition concatenates parts with chained cross-fades. Requires
// at least 2 parts and a non-"none" transition kind; both are guaranteed by
// the pipeline's routing but checked here as well.
func (b *Builder) ConcatWithTransition(ctx context.Context, parts []string, output string, kind models.Transition, durationSec float64, hw bool) error {
	if len(parts) < 2 {
		return fmt.Errorf("transition concat needs at least 2 parts, got %d", len(parts))
	}
	if kind == models.TransitionNone {
		return fmt.Errorf("transition concat requires a transition kind other than %q", models.TransitionNone)
	}

	durations := make([]float64, len(parts))
	for i, p := range parts {
		d, err := b.probe.Duration(ctx, p)
		if err != nil {
			return err
		}
		durations[i] = d
	}

	graph := transitionGraph(durations, kind, durationSec)

	var args []string
	args = append(args, "-y")
	for _, p := range parts {
		args = append(args, "-i", p)
	}
	args = append(args, "-filter_complex", graph.String())
	args = append(args, "-map", "[vout]", "-map", "[aout]")
	args = append(args, videoEncodeArgs(hw)...)
	args = append(args, "-c:a", "aac", "-b:a", audioBitrate)
	args = append(args, commonMP4Flags()...)
	args = append(args, output)

	return b.ffmpeg(ctx, "concat(xfade)", args)
}

// BurnSubtitles overlays a subtitle file onto the video with the given
// force_style string. The audio stream is copied unchanged.
func (b *Builder) BurnSubtitles(ctx context.Context, video, subtitlePath, output, forceStyle string) error {
	vf := fmt.Sprintf("subtitles='%s':force_style='%s'", escapeFilterPath(subtitlePath), forceStyle)

	args := []string{
		"-y",
		"-i", video,
		"-vf", vf,
		"-c:a", "copy",
	}
	args = append(args, commonMP4Flags()...)
	args = append(args, output)

	return b.ffmpeg(ctx, "burn subtitles", args)
}

// escapeFilterPath escapes characters that ffmpeg filter syntax treats
// specially in file paths.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}
