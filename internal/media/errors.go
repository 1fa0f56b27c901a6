package media

import (
	"fmt"
	"strings"
)

// EncodeError is returned when ffmpeg exits non-zero. Stderr carries the
// tool's own diagnostic output verbatim; it is never swallowed.
type EncodeError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *EncodeError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s failed: %s", e.Op, msg)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ProbeError is returned when ffprobe cannot inspect a file or its output
// cannot be parsed.
type ProbeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("probe %s: %s", e.Path, msg)
}

func (e *ProbeError) Unwrap() error { return e.Err }
