package server

import (
	"encoding/json"
	"net/http"
	"time"

	gerrors "github.com/guardrail-oss/guardrail/internal/errors"
	"github.com/guardrail-oss/guardrail/internal/event"
	"github.com/guardrail-oss/guardrail/internal/failure"
)

// --- Helpers ---

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Workflow hooks ---

// outcomePayload is the webhook body external workflow engines POST.
type outcomePayload struct {
	Workflow        string  `json:"workflow"`
	StatusCode      *int    `json:"status_code,omitempty"`
	ResponseBody    string  `json:"response_body,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	TaskID          string  `json:"task_id,omitempty"`
}

func (p outcomePayload) outcome() failure.Outcome {
	return failure.Outcome{
		StatusCode:   p.StatusCode,
		ResponseBody: p.ResponseBody,
		Duration:     time.Duration(p.DurationSeconds * float64(time.Second)),
		WorkflowName: p.Workflow,
		TaskID:       p.TaskID,
	}
}

func (s *Server) handleHookStarted(w http.ResponseWriter, r *http.Request) {
	var payload outcomePayload
	if err := decodeJSON(r, &payload); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Workflow == "" {
		jsonError(w, http.StatusBadRequest, "workflow is required")
		return
	}

	result, err := s.client.OnWorkflowStarted(r.Context(), payload.Workflow)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusAccepted, result)
}

func (s *Server) handleHookCompleted(w http.ResponseWriter, r *http.Request) {
	s.handleOutcome(w, r, false)
}

func (s *Server) handleHookFailed(w http.ResponseWriter, r *http.Request) {
	s.handleOutcome(w, r, true)
}

func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request, failed bool) {
	var payload outcomePayload
	if err := decodeJSON(r, &payload); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Workflow == "" {
		jsonError(w, http.StatusBadRequest, "workflow is required")
		return
	}

	var err error
	var result interface{}
	if failed {
		result, err = s.client.OnWorkflowFailed(r.Context(), payload.outcome())
	} else {
		result, err = s.client.OnWorkflowCompleted(r.Context(), payload.outcome())
	}
	if err != nil {
		status := http.StatusInternalServerError
		if gerrors.AsCode(err) == gerrors.CodeWorkflowUnmapped {
			status = http.StatusUnprocessableEntity
		}
		jsonResponse(w, status, map[string]interface{}{
			"error":  err.Error(),
			"result": result,
		})
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// --- Completion routing ---

type routePayload struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var payload routePayload
	if err := decodeJSON(r, &payload); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Tool == "" {
		jsonError(w, http.StatusBadRequest, "tool is required")
		return
	}

	result, err := s.client.RouteCompletion(r.Context(), payload.Tool, payload.Output)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// --- Audit trail ---

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	filter := event.Filter{
		Type:   event.Type(r.URL.Query().Get("type")),
		Status: event.Status(r.URL.Query().Get("status")),
		Limit:  50,
	}
	if since := r.URL.Query().Get("since"); since != "" {
		d, err := time.ParseDuration(since)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid since duration")
			return
		}
		filter.Since = time.Now().UTC().Add(-d)
	}

	events, err := s.client.Events(filter)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.client.Event(r.PathValue("id"))
	if err != nil {
		if gerrors.AsCode(err) == gerrors.CodeEventNotFound {
			jsonError(w, http.StatusNotFound, err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, ev)
}

func (s *Server) handleResolveEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.client.ResolveEvent(id); err != nil {
		switch gerrors.AsCode(err) {
		case gerrors.CodeEventNotFound:
			jsonError(w, http.StatusNotFound, err.Error())
		case gerrors.CodeEventResolved:
			jsonError(w, http.StatusConflict, err.Error())
		default:
			jsonError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"resolved": id})
}

// --- Metrics ---

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.client.Metrics())
}
