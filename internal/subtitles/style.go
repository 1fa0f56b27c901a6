package subtitles

import (
	"fmt"
	"strconv"
	"strings"

	"clipforge/internal/models"
)

// ForceStyle builds the ffmpeg subtitles filter force_style string from a
// style descriptor. Missing fields fall back to the defaults so a partially
// filled descriptor still yields a complete override.
func ForceStyle(style models.SubtitleStyle) string {
	style = withDefaults(style)
	return fmt.Sprintf("FontName=%s,FontSize=%d,PrimaryColour=%s,OutlineColour=%s,BorderStyle=1,Outline=%d,Shadow=1,Alignment=%d,MarginV=%d",
		style.Font, style.Size,
		hexToASSColor(style.Color), hexToASSColor(style.OutlineColor),
		style.Outline, assAlignment(style.Position), style.MarginV)
}

func withDefaults(style models.SubtitleStyle) models.SubtitleStyle {
	def := models.DefaultSubtitleStyle()
	if style.Font == "" {
		style.Font = def.Font
	}
	if style.Size <= 0 {
		style.Size = def.Size
	}
	if style.Color == "" {
		style.Color = def.Color
	}
	if style.OutlineColor == "" {
		style.OutlineColor = def.OutlineColor
	}
	if style.Outline <= 0 {
		style.Outline = def.Outline
	}
	if style.Position == "" {
		style.Position = def.Position
	}
	if style.MarginV <= 0 {
		style.MarginV = def.MarginV
	}
	return style
}

// hexToASSColor converts "#RRGGBB" to the ASS "&H00BBGGRR" form (zero alpha,
// channels reversed). Anything unparseable becomes opaque white.
func hexToASSColor(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 6 {
		r, errR := strconv.ParseUint(hex[0:2], 16, 8)
		g, errG := strconv.ParseUint(hex[2:4], 16, 8)
		b, errB := strconv.ParseUint(hex[4:6], 16, 8)
		if errR == nil && errG == nil && errB == nil {
			return fmt.Sprintf("&H00%02X%02X%02X", b, g, r)
		}
	}
	return "&H00FFFFFF"
}

// assAlignment maps a vertical position name to its numpad alignment code.
func assAlignment(position string) int {
	switch position {
	case "top":
		return 8
	case "center":
		return 5
	default:
		return 2
	}
}
