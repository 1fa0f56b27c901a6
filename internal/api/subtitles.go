package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clipforge/internal/models"
	"clipforge/internal/subtitles"
)

// GenerateSubtitles handles POST /v1/jobs/{id}/generate-subtitles. The job
// must be rendered; an in-flight generation or burn cannot be restarted.
func (h *Handler) GenerateSubtitles(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}
	job, err := h.db.GetJob(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	if job.Status != models.JobStatusDone {
		respondError(w, http.StatusBadRequest, "Job must be rendered before generating subtitles")
		return
	}
	if _, err := h.db.GetRenderOutput(r.Context(), id); err != nil {
		respondError(w, http.StatusBadRequest, "Job has no rendered output")
		return
	}
	if job.SubtitleStatus == models.SubtitleStatusGenerating {
		respondError(w, http.StatusBadRequest, "Subtitle generation already in progress")
		return
	}
	if job.SubtitleStatus == models.SubtitleStatusBurning {
		respondError(w, http.StatusBadRequest, "Subtitle burn in progress")
		return
	}

	if err := h.db.SetJobSubtitleStatus(r.Context(), id, models.SubtitleStatusGenerating, ""); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update job")
		return
	}
	if err := h.queue.EnqueueGenerateSubtitles(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "generating", "job_id": id.String()})
}

// UpdateSubtitles handles PATCH /v1/jobs/{id}/subtitles. Edits are only
// accepted while the track is editable: ready_for_edit, burned or error.
// Edited text is realigned against the stored word timestamps so the
// animated captions survive free-form editing.
func (h *Handler) UpdateSubtitles(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}
	job, err := h.db.GetJob(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	if !job.SubtitleStatus.Editable() {
		respondError(w, http.StatusBadRequest, "Subtitles are not editable in the current state")
		return
	}

	var req models.UpdateSubtitlesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Segments != nil {
		merged := subtitles.ApplyEdits(job.SubtitleSegments, req.Segments)
		if err := h.db.UpdateJobSubtitleSegments(r.Context(), id, merged); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update subtitles")
			return
		}
		job.SubtitleSegments = merged
	}
	if req.Style != nil {
		if err := h.db.UpdateJobSubtitleStyle(r.Context(), id, *req.Style); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update subtitle style")
			return
		}
		job.SubtitleStyle = req.Style
	}

	respondJSON(w, http.StatusOK, job)
}

// burnBlockReason reports why a job cannot enter the burning state, or ""
// when the burn may proceed. Only ready_for_edit qualifies: the burn consumes
// the current artifact, and once a track is burned the captions are already
// in the video, so a second pass would stack them.
func burnBlockReason(job *models.Job) string {
	if job.SubtitleStatus != models.SubtitleStatusReadyForEdit {
		return "Subtitles must be ready for edit before burning"
	}
	if len(job.SubtitleSegments) == 0 {
		return "Job has no subtitle segments"
	}
	return ""
}

// BurnSubtitles handles POST /v1/jobs/{id}/burn-subtitles. Requires a track
// in ready_for_edit with segments present; the burn replaces the artifact.
func (h *Handler) BurnSubtitles(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}
	job, err := h.db.GetJob(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	if reason := burnBlockReason(job); reason != "" {
		respondError(w, http.StatusBadRequest, reason)
		return
	}

	if err := h.db.SetJobSubtitleStatus(r.Context(), id, models.SubtitleStatusBurning, ""); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update job")
		return
	}
	if err := h.queue.EnqueueBurnSubtitles(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "burning", "job_id": id.String()})
}
