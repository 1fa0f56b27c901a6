package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"clipforge/internal/models"
)

// Transcriber produces timestamped segments from a media file through a
// Whisper-compatible endpoint. The primary client targets the accelerated
// deployment; when that fails with an infrastructure-class error and a
// fallback endpoint is configured, the request is retried there.
type Transcriber struct {
	primary  *openai.Client
	fallback *openai.Client
	model    string
}

// NewTranscriber builds clients for the given endpoints. Empty baseURL keeps
// the library default; empty fallbackBaseURL disables the retry path.
func NewTranscriber(apiKey, baseURL, fallbackBaseURL string) *Transcriber {
	newClient := func(base string) *openai.Client {
		cfg := openai.DefaultConfig(apiKey)
		if base != "" {
			cfg.BaseURL = base
		}
		return openai.NewClientWithConfig(cfg)
	}

	t := &Transcriber{
		primary: newClient(baseURL),
		model:   openai.Whisper1,
	}
	if fallbackBaseURL != "" {
		t.fallback = newClient(fallbackBaseURL)
	}
	return t
}

// Transcribe returns segments with word-level timestamps for the media file
// at path.
func (t *Transcriber) Transcribe(ctx context.Context, path, language string) ([]models.Segment, error) {
	segments, err := t.transcribe(ctx, t.primary, path, language)
	if err == nil {
		return segments, nil
	}
	if t.fallback != nil && retryableOnFallback(err) {
		log.Printf("[Subtitles] Accelerated transcription failed, retrying on fallback endpoint: %v", err)
		return t.transcribe(ctx, t.fallback, path, language)
	}
	return nil, err
}

func (t *Transcriber) transcribe(ctx context.Context, client *openai.Client, path, language string) ([]models.Segment, error) {
	if language == "" {
		language = "pt"
	}

	resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: language,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}
	return segmentsFromResponse(resp), nil
}

// segmentsFromResponse converts the verbose JSON payload into segment records.
// Whisper returns segment spans and a flat word list separately; words are
// bucketed into the segment whose span contains their start time.
func segmentsFromResponse(resp openai.AudioResponse) []models.Segment {
	segments := make([]models.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, models.Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}

	if len(segments) == 0 {
		if text := strings.TrimSpace(resp.Text); text != "" {
			segments = append(segments, models.Segment{
				Start: 0,
				End:   resp.Duration,
				Text:  text,
			})
		} else {
			return segments
		}
	}

	idx := 0
	for _, w := range resp.Words {
		for idx < len(segments)-1 && w.Start >= segments[idx].End {
			idx++
		}
		segments[idx].Words = append(segments[idx].Words, models.Word{
			Start: w.Start,
			End:   w.End,
			Word:  strings.TrimSpace(w.Word),
		})
	}
	return segments
}

// retryableOnFallback reports whether a transcription failure is the kind a
// different deployment can fix: the endpoint is unreachable or failing
// internally. Client-side errors (bad request, auth, unsupported media)
// propagate immediately.
func retryableOnFallback(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
