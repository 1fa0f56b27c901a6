package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clipforge/internal/models"
)

// CreateJob handles POST /v1/jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req models.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.CutIDs) == 0 {
		respondError(w, http.StatusBadRequest, "At least one cut is required")
		return
	}

	orientation := models.OrientationVertical
	if req.Orientation != nil {
		orientation = models.Orientation(*req.Orientation)
		if orientation != models.OrientationVertical && orientation != models.OrientationHorizontal {
			respondError(w, http.StatusBadRequest, "Orientation must be vertical or horizontal")
			return
		}
	}

	transition := models.TransitionNone
	if req.Transition != nil {
		transition = models.Transition(*req.Transition)
		if !transition.Valid() {
			respondError(w, http.StatusBadRequest, "Unknown transition")
			return
		}
	}
	transitionDuration := 0.5
	if req.TransitionDuration != nil {
		if *req.TransitionDuration <= 0 {
			respondError(w, http.StatusBadRequest, "transition_duration must be positive")
			return
		}
		transitionDuration = *req.TransitionDuration
	}

	for _, cutID := range req.CutIDs {
		if _, err := h.db.GetCut(r.Context(), cutID); err != nil {
			respondError(w, http.StatusBadRequest, "Cut not found: "+cutID.String())
			return
		}
	}

	job := &models.Job{
		ID:                 uuid.New(),
		Name:               req.Name,
		Orientation:        orientation,
		IntroAssetID:       req.IntroAssetID,
		OutroAssetID:       req.OutroAssetID,
		Transition:         transition,
		TransitionDuration: transitionDuration,
		Status:             models.JobStatusQueued,
		SubtitleStatus:     models.SubtitleStatusNone,
	}
	if err := h.db.CreateJob(r.Context(), job); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	if err := h.db.SetJobCuts(r.Context(), job.ID, req.CutIDs); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to attach cuts")
		return
	}
	respondJSON(w, http.StatusCreated, job)
}

// ListJobs handles GET /v1/jobs?status=&limit=&offset=
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	status := models.JobStatus(r.URL.Query().Get("status"))
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	jobs, err := h.db.ListJobs(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	total, err := h.db.CountJobs(r.Context(), status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count jobs")
		return
	}

	respondJSON(w, http.StatusOK, models.ListJobsResponse{
		Jobs:   jobs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetJob handles GET /v1/jobs/{id}. Clients poll this for status, progress
// and the run log.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
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

	resp := models.JobResponse{Job: *job}
	if cuts, err := h.db.GetJobCuts(r.Context(), id); err == nil {
		resp.Cuts = cuts
	}
	if _, err := h.db.GetRenderOutput(r.Context(), id); err == nil {
		url := "/v1/jobs/" + id.String() + "/download"
		resp.ArtifactURL = &url
	}
	respondJSON(w, http.StatusOK, resp)
}

// RunJob handles POST /v1/jobs/{id}/run. Requeues are allowed from QUEUED,
// FAILED and DONE; a running job cannot be requeued.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
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
	if job.Status == models.JobStatusRunning {
		respondError(w, http.StatusBadRequest, "Job is already running")
		return
	}
	clips, err := h.db.GetJobClipRefs(r.Context(), id)
	if err != nil || len(clips) == 0 {
		respondError(w, http.StatusBadRequest, "Job needs at least 1 cut")
		return
	}

	if err := h.db.MarkJobQueued(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to queue job")
		return
	}
	if err := h.queue.EnqueueRenderJob(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "queued", "job_id": id.String()})
}

// DownloadJob handles GET /v1/jobs/{id}/download, streaming the artifact.
func (h *Handler) DownloadJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}
	out, err := h.db.GetRenderOutput(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Job has no rendered output")
		return
	}

	abs := h.storage.Abs(out.File)
	if _, err := os.Stat(abs); err != nil {
		respondError(w, http.StatusNotFound, "Output file not found")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="job_`+id.String()+`.mp4"`)
	http.ServeFile(w, r, abs)
}

// DeleteJob handles DELETE /v1/jobs/{id}. Removes the row, the artifact and
// any leftover workspace.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
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
	if job.Status == models.JobStatusRunning {
		respondError(w, http.StatusBadRequest, "Cannot delete a running job")
		return
	}

	var artifact string
	if out, err := h.db.GetRenderOutput(r.Context(), id); err == nil {
		artifact = out.File
	}
	if err := h.db.DeleteJob(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}
	h.storage.Remove(artifact)
	h.storage.RemoveJobDir(id)
	w.WriteHeader(http.StatusNoContent)
}
