package media

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimecode converts "HH:MM:SS", "MM:SS" or "HH:MM:SS.ms" to seconds.
func ParseTimecode(tc string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(tc), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timecode %q", tc)
	}

	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timecode %q", tc)
		}
		total = total*60 + v
	}
	return total, nil
}
