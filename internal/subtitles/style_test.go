package subtitles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clipforge/internal/models"
)

func TestHexToASSColor(t *testing.T) {
	assert.Equal(t, "&H00FFFFFF", hexToASSColor("#FFFFFF"))
	assert.Equal(t, "&H000000FF", hexToASSColor("#FF0000"))
	assert.Equal(t, "&H00FF0000", hexToASSColor("#0000FF"))
	assert.Equal(t, "&H0032FF64", hexToASSColor("#64FF32"))

	// anything unparseable falls back to opaque white
	assert.Equal(t, "&H00FFFFFF", hexToASSColor("red"))
	assert.Equal(t, "&H00FFFFFF", hexToASSColor("#GGHHII"))
	assert.Equal(t, "&H00FFFFFF", hexToASSColor(""))
}

func TestForceStyleDefaults(t *testing.T) {
	got := ForceStyle(models.SubtitleStyle{})

	assert.Equal(t,
		"FontName=Arial,FontSize=24,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,BorderStyle=1,Outline=2,Shadow=1,Alignment=2,MarginV=20",
		got)
}

func TestForceStyleCustom(t *testing.T) {
	got := ForceStyle(models.SubtitleStyle{
		Font:         "Impact",
		Size:         36,
		Color:        "#FFFF00",
		OutlineColor: "#202020",
		Outline:      3,
		Position:     "center",
		MarginV:      60,
	})

	assert.Equal(t,
		"FontName=Impact,FontSize=36,PrimaryColour=&H0000FFFF,OutlineColour=&H00202020,BorderStyle=1,Outline=3,Shadow=1,Alignment=5,MarginV=60",
		got)
}

func TestASSAlignment(t *testing.T) {
	assert.Equal(t, 2, assAlignment("bottom"))
	assert.Equal(t, 5, assAlignment("center"))
	assert.Equal(t, 8, assAlignment("top"))
	assert.Equal(t, 2, assAlignment("somewhere"))
}
