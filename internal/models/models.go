package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Enums

type JobStatus string

const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

type SubtitleStatus string

const (
	SubtitleStatusNone         SubtitleStatus = "none"
	SubtitleStatusGenerating   SubtitleStatus = "generating"
	SubtitleStatusReadyForEdit SubtitleStatus = "ready_for_edit"
	SubtitleStatusBurning      SubtitleStatus = "burning"
	SubtitleStatusBurned       SubtitleStatus = "burned"
	SubtitleStatusError        SubtitleStatus = "error"
)

// Editable reports whether subtitle segments/style may be modified in this state.
// Edits are rejected mid-generation and mid-burn so the burn stage never reads
// segments while they change under it.
func (s SubtitleStatus) Editable() bool {
	switch s {
	case SubtitleStatusReadyForEdit, SubtitleStatusBurned, SubtitleStatusError:
		return true
	}
	return false
}

type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
)

type Transition string

const (
	TransitionNone      Transition = "none"
	TransitionFade      Transition = "fade"
	TransitionFadeBlack Transition = "fadeblack"
	TransitionWipeLeft  Transition = "wipeleft"
	TransitionWipeRight Transition = "wiperight"
	TransitionDissolve  Transition = "dissolve"
)

// Valid reports whether t is one of the supported transition kinds.
func (t Transition) Valid() bool {
	switch t {
	case TransitionNone, TransitionFade, TransitionFadeBlack,
		TransitionWipeLeft, TransitionWipeRight, TransitionDissolve:
		return true
	}
	return false
}

type AssetType string

const (
	AssetTypeLogo  AssetType = "LOGO"
	AssetTypeFrame AssetType = "FRAME"
	AssetTypeIntro AssetType = "INTRO"
	AssetTypeOutro AssetType = "OUTRO"
	AssetTypeCTA   AssetType = "CTA"
)

// Models

type Brand struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type BrandAsset struct {
	ID        uuid.UUID `json:"id"`
	BrandID   uuid.UUID `json:"brand_id"`
	AssetType AssetType `json:"asset_type"`
	File      string    `json:"file"` // path relative to the media root
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

type SourceVideo struct {
	ID          uuid.UUID `json:"id"`
	BrandID     uuid.UUID `json:"brand_id"`
	Title       string    `json:"title"`
	File        string    `json:"file"`
	DurationSec *float64  `json:"duration_sec,omitempty"`
	Width       *int      `json:"width,omitempty"`
	Height      *int      `json:"height,omitempty"`
	HasAudio    *bool     `json:"has_audio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Cut is a named time span on a source video. Timecodes are HH:MM:SS or
// HH:MM:SS.ms; the span is [start, end).
type Cut struct {
	ID          uuid.UUID `json:"id"`
	SourceID    uuid.UUID `json:"source_id"`
	Name        string    `json:"name"`
	StartTC     string    `json:"start_tc"`
	EndTC       string    `json:"end_tc"`
	DurationSec float64   `json:"duration_sec"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClipRef is a resolved, ordered pointer to a source media span: the source
// file on disk plus the [start, end) timecodes to extract. Immutable once a
// job run begins.
type ClipRef struct {
	CutID   uuid.UUID `json:"cut_id"`
	Path    string    `json:"path"`
	StartTC string    `json:"start_tc"`
	EndTC   string    `json:"end_tc"`
}

type Job struct {
	ID                 uuid.UUID      `json:"id"`
	Name               string         `json:"name"`
	Orientation        Orientation    `json:"orientation"`
	IntroAssetID       *uuid.UUID     `json:"intro_asset_id,omitempty"`
	OutroAssetID       *uuid.UUID     `json:"outro_asset_id,omitempty"`
	Transition         Transition     `json:"transition"`
	TransitionDuration float64        `json:"transition_duration"`
	Status             JobStatus      `json:"status"`
	Progress           int            `json:"progress"` // 0..100, monotonic within a run
	Log                string         `json:"log"`
	Error              string         `json:"error"`
	SubtitleStatus     SubtitleStatus `json:"subtitle_status"`
	SubtitleError      string         `json:"subtitle_error"`
	SubtitleSegments   SegmentList    `json:"subtitle_segments,omitempty"`
	SubtitleStyle      *SubtitleStyle `json:"subtitle_style,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	StartedAt          *time.Time     `json:"started_at,omitempty"`
	FinishedAt         *time.Time     `json:"finished_at,omitempty"`
}

// RenderOutput is the one live artifact for a job. Re-running the job
// replaces it; deleting the job deletes it.
type RenderOutput struct {
	JobID     uuid.UUID `json:"job_id"`
	File      string    `json:"file"` // path relative to the media root
	CreatedAt time.Time `json:"created_at"`
}

// Subtitle data

// Word is the smallest timed transcription token, spanning [Start, End) seconds.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// Segment is a transcribed phrase spanning [Start, End) seconds. Words is
// optional; when present the word spans are non-decreasing and fit within
// the segment span.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// SegmentList is stored as a JSONB column on the job row.
type SegmentList []Segment

func (s SegmentList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *SegmentList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into SegmentList", value)
	}
	return json.Unmarshal(bytes, s)
}

// SubtitleStyle describes how burned subtitles look. Animated selects the
// word-accumulating caption format instead of plain sequential captions.
type SubtitleStyle struct {
	Font         string `json:"font"`
	Size         int    `json:"size"`
	Color        string `json:"color"`         // #RRGGBB
	OutlineColor string `json:"outline_color"` // #RRGGBB
	Outline      int    `json:"outline"`
	Position     string `json:"position"` // bottom, center, top
	MarginV      int    `json:"margin_v"`
	Animated     bool   `json:"animated"`
}

// DefaultSubtitleStyle returns the style used when the job has none saved.
func DefaultSubtitleStyle() SubtitleStyle {
	return SubtitleStyle{
		Font:         "Arial",
		Size:         24,
		Color:        "#FFFFFF",
		OutlineColor: "#000000",
		Outline:      2,
		Position:     "bottom",
		MarginV:      20,
	}
}

func (s SubtitleStyle) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *SubtitleStyle) Scan(value interface{}) error {
	if value == nil {
		*s = SubtitleStyle{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into SubtitleStyle", value)
	}
	return json.Unmarshal(bytes, s)
}

// DTOs for API responses

type JobResponse struct {
	Job
	Cuts        []Cut   `json:"cuts,omitempty"`
	ArtifactURL *string `json:"artifact_url,omitempty"`
}

type ListJobsResponse struct {
	Jobs   []Job `json:"jobs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type CreateJobRequest struct {
	Name               string      `json:"name"`
	CutIDs             []uuid.UUID `json:"cut_ids"`
	Orientation        *string     `json:"orientation,omitempty"` // default "vertical"
	IntroAssetID       *uuid.UUID  `json:"intro_asset_id,omitempty"`
	OutroAssetID       *uuid.UUID  `json:"outro_asset_id,omitempty"`
	Transition         *string     `json:"transition,omitempty"`          // default "none"
	TransitionDuration *float64    `json:"transition_duration,omitempty"` // default 0.5
}

type CreateCutsRequest struct {
	Cuts []CreateCutSpec `json:"cuts"`
}

type CreateCutSpec struct {
	Name    string `json:"name"`
	StartTC string `json:"start_tc"`
	EndTC   string `json:"end_tc"`
}

type UpdateSubtitlesRequest struct {
	Segments []EditedSegment `json:"segments,omitempty"`
	Style    *SubtitleStyle  `json:"style,omitempty"`
}

// EditedSegment carries the user-edited text for one existing segment.
// Timing comes from the stored segment; only the text is user-supplied.
type EditedSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
