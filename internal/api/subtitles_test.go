package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clipforge/internal/models"
)

func TestBurnBlockReason(t *testing.T) {
	segments := models.SegmentList{{Start: 0, End: 1, Text: "ola"}}

	cases := []struct {
		name     string
		status   models.SubtitleStatus
		segments models.SegmentList
		blocked  bool
	}{
		{"ready for edit", models.SubtitleStatusReadyForEdit, segments, false},
		{"already burned", models.SubtitleStatusBurned, segments, true},
		{"error state", models.SubtitleStatusError, segments, true},
		{"none", models.SubtitleStatusNone, segments, true},
		{"generating", models.SubtitleStatusGenerating, segments, true},
		{"burn in flight", models.SubtitleStatusBurning, segments, true},
		{"no segments", models.SubtitleStatusReadyForEdit, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := &models.Job{SubtitleStatus: tc.status, SubtitleSegments: tc.segments}
			reason := burnBlockReason(job)
			if tc.blocked {
				assert.NotEmpty(t, reason)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}

// A burned track stays editable, but a second burn would overlay captions on
// an artifact that already carries them. Editing and burning therefore gate
// on different state sets.
func TestBurnedTrackIsEditableButNotBurnable(t *testing.T) {
	job := &models.Job{
		SubtitleStatus:   models.SubtitleStatusBurned,
		SubtitleSegments: models.SegmentList{{Start: 0, End: 1, Text: "ola"}},
	}

	assert.True(t, job.SubtitleStatus.Editable())
	assert.NotEmpty(t, burnBlockReason(job))
}
