package subtitles

import (
	"fmt"
	"strconv"
	"strings"

	"clipforge/internal/models"
)

// RenderSRT serializes segments as SubRip text with HH:MM:SS,mmm timestamps.
// Segments with empty text are skipped; cue numbers keep the source segment
// index, leaving gaps where blanks were dropped.
func RenderSRT(segments []models.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTimestamp(seg.Start), srtTimestamp(seg.End), text)
	}
	return b.String()
}

// ParseSRT reads SubRip text back into segments. Multi-line cue text is
// joined with newlines preserved.
func ParseSRT(text string) ([]models.Segment, error) {
	var segments []models.Segment
	blocks := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		// lines[0] is the cue index, lines[1] the timing line
		parts := strings.Split(lines[1], " --> ")
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed timing line: %q", lines[1])
		}
		start, err := parseSRTTimestamp(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := parseSRTTimestamp(parts[1])
		if err != nil {
			return nil, err
		}
		segments = append(segments, models.Segment{
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return segments, nil
}

func srtTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int(sec*1000 + 0.5)
	h := ms / 3600000
	m := ms % 3600000 / 60000
	s := ms % 60000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

func parseSRTTimestamp(ts string) (float64, error) {
	ts = strings.TrimSpace(ts)
	var h, m, s, ms int
	if _, err := fmt.Sscanf(ts, "%d:%d:%d,%d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("malformed timestamp %q: %w", ts, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}

// RenderASS serializes segments as an Advanced SubStation Alpha script with
// word-accumulation animation: each word gets a Dialogue event showing the
// segment text up to and including that word. Events within a segment abut
// exactly (each word's end is the next word's start), the last extends to the
// segment end. Segments without word timing fall back to a single static event.
func RenderASS(segments []models.Segment, style models.SubtitleStyle) string {
	style = withDefaults(style)
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("PlayResX: 1080\n")
	b.WriteString("PlayResY: 1920\n")
	b.WriteString("WrapStyle: 0\n\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,&H000000FF,%s,&H00000000,0,0,0,0,100,100,0,0,1,%d,1,%d,10,10,%d,1\n\n",
		style.Font, style.Size,
		hexToASSColor(style.Color), hexToASSColor(style.OutlineColor),
		style.Outline, assAlignment(style.Position), style.MarginV)

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, seg := range segments {
		text := strings.TrimSpace(strings.ReplaceAll(seg.Text, "\n", " "))
		if text == "" {
			continue
		}
		if len(seg.Words) == 0 {
			fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
				assTimestamp(seg.Start), assTimestamp(seg.End), escapeASS(text))
			continue
		}
		var shown []string
		for i, w := range seg.Words {
			word := strings.TrimSpace(w.Word)
			if word == "" {
				continue
			}
			shown = append(shown, word)
			end := seg.End
			if i < len(seg.Words)-1 {
				end = seg.Words[i+1].Start
			}
			fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
				assTimestamp(w.Start), assTimestamp(end), escapeASS(strings.Join(shown, " ")))
		}
	}
	return b.String()
}

// assTimestamp formats seconds as H:MM:SS.cc (centisecond precision).
func assTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	cs := int(sec*100 + 0.5)
	h := cs / 360000
	m := cs % 360000 / 6000
	s := cs % 6000 / 100
	return strconv.Itoa(h) + fmt.Sprintf(":%02d:%02d.%02d", m, s, cs%100)
}

// escapeASS neutralizes characters ASS treats specially in event text.
func escapeASS(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "{", "\\{")
	text = strings.ReplaceAll(text, "}", "\\}")
	return text
}
