package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/go-chi/chi/v5"
)

// maxListLimit caps the page size a client may request on GET /tasks.
const maxListLimit = 100

// submitRequest is the POST /tasks payload. Kind selects a registered
// builder; params are handed to it as typed values, never stringified.
type submitRequest struct {
	Kind           string        `json:"kind" validate:"required"`
	Name           string        `json:"name" validate:"required,max=200"`
	Description    string        `json:"description"`
	Priority       string        `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	MaxRetries     int           `json:"max_retries" validate:"gte=0,lte=10"`
	Tags           []string      `json:"tags"`
	Params         models.Params `json:"params"`
	TimeoutSeconds float64       `json:"timeout_seconds" validate:"gte=0"`
}

type cancelBatchRequest struct {
	TaskIDs []string `json:"task_ids" validate:"required,min=1,max=100"`
}

type sweepRequest struct {
	MaxAgeHours int `json:"max_age_hours" validate:"required,gte=1,lte=168"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fn, err := s.registry.Build(req.Kind, req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := []models.TaskOption{models.WithParams(req.Params)}
	if req.Priority != "" {
		priority, err := models.ParseTaskPriority(req.Priority)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts = append(opts, models.WithPriority(priority))
	}
	if req.MaxRetries > 0 {
		opts = append(opts, models.WithMaxRetries(req.MaxRetries))
	}
	if len(req.Tags) > 0 {
		opts = append(opts, models.WithTags(req.Tags...))
	}
	if req.TimeoutSeconds > 0 {
		opts = append(opts, models.WithTimeout(time.Duration(req.TimeoutSeconds*float64(time.Second))))
	}

	rec, err := s.svc.Submit(req.Name, req.Description, fn, opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.logger.Infof("Accepted task %s (kind=%s, priority=%s)", rec.ID, req.Kind, rec.Priority)
	writeSuccess(w, http.StatusCreated, map[string]interface{}{"task": rec})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.GetStatus(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"task": rec})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
			return
		}
		limit = n
	}

	listing, err := s.svc.List(r.URL.Query().Get("status"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"tasks":         listing.Tasks,
		"count":         len(listing.Tasks),
		"total":         listing.Total,
		"status_counts": listing.StatusCounts,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	records, err := s.svc.Search(r.URL.Query().Get("q"), tags, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"tasks": records, "count": len(records)})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"task": rec})
}

func (s *Server) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	var req cancelBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := s.svc.CancelMany(req.TaskIDs)
	cancelled := 0
	for _, res := range results {
		if res.Cancelled {
			cancelled++
		}
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"results": results, "cancelled": cancelled})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Remove(id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]interface{}{"removed": id})
}

func (s *Server) handleQueueInfo(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]interface{}{"queue": s.svc.QueueInfo()})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := s.svc.Sweep(time.Duration(req.MaxAgeHours) * time.Hour)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.logger.Infof("Sweep removed %d finished tasks older than %dh", removed, req.MaxAgeHours)
	writeSuccess(w, http.StatusOK, map[string]interface{}{"removed": removed})
}
