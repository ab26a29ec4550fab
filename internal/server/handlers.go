package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.startTime).String(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Summary(r.Context()))
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"anomalies": s.monitor.Anomalies(r.Context()),
	})
}

type toolStartRequest struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

func (s *Server) handleToolStart(w http.ResponseWriter, r *http.Request) {
	var req toolStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "tool is required")
		return
	}
	var args interface{}
	if len(req.Args) > 0 {
		if err := json.Unmarshal(req.Args, &args); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid args: "+err.Error())
			return
		}
	}
	id := s.monitor.StartToolCall(r.Context(), req.Tool, args)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type toolEndRequest struct {
	Result  json.RawMessage `json:"result"`
	Success *bool           `json:"success"`
	Error   string          `json:"error"`
}

func (s *Server) handleToolEnd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req toolEndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Success == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "success is required")
		return
	}
	var result interface{}
	if len(req.Result) > 0 {
		if err := json.Unmarshal(req.Result, &result); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid result: "+err.Error())
			return
		}
	}
	s.monitor.EndToolCall(r.Context(), id, result, *req.Success, req.Error)
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type turnStartRequest struct {
	UserMessage json.RawMessage `json:"user_message"`
}

func (s *Server) handleTurnStart(w http.ResponseWriter, r *http.Request) {
	var req turnStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	var msg interface{}
	if len(req.UserMessage) > 0 {
		if err := json.Unmarshal(req.UserMessage, &msg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid user_message: "+err.Error())
			return
		}
	}
	id := s.monitor.StartAssistantTurn(r.Context(), msg)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type turnToolRequest struct {
	Tool string `json:"tool"`
}

func (s *Server) handleTurnTool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req turnToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "tool is required")
		return
	}
	s.monitor.NoteToolUsed(id, req.Tool)
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type turnEndRequest struct {
	AssistantMessage json.RawMessage `json:"assistant_message"`
}

func (s *Server) handleTurnEnd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req turnEndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	var msg interface{}
	if len(req.AssistantMessage) > 0 {
		if err := json.Unmarshal(req.AssistantMessage, &msg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid assistant_message: "+err.Error())
			return
		}
	}
	s.monitor.EndAssistantTurn(r.Context(), id, msg)
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type groundTruthRequest struct {
	Numbers map[string]float64 `json:"numbers"`
}

func (s *Server) handleGroundTruth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req groundTruthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if len(req.Numbers) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "numbers is required")
		return
	}
	s.monitor.ProvideGroundTruth(id, req.Numbers)
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type validateRequest struct {
	Label     string   `json:"label"`
	Claimed   *float64 `json:"claimed"`
	Truth     *float64 `json:"truth"`
	Tolerance float64  `json:"tolerance"`
	Auto      bool     `json:"auto"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "label is required")
		return
	}
	if req.Auto {
		if req.Truth == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "truth is required for auto validation")
			return
		}
		s.monitor.AutoValidateFromAnswer(r.Context(), id, req.Label, *req.Truth, req.Tolerance)
	} else {
		s.monitor.ValidateNumber(r.Context(), id, req.Label, req.Claimed, req.Truth, req.Tolerance)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
