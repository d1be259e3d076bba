package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"complaint-router/internal/common/errors"
	"complaint-router/internal/common/validation"
	"complaint-router/internal/dataset"
	"complaint-router/internal/models"
)

var (
	chatSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["message"],
  "properties": {
    "message":  {"type": "string", "minLength": 1},
    "language": {"type": ["string", "null"]}
  }
}`)

	analyzeSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["complaint"],
  "properties": {
    "complaint": {"type": "string", "minLength": 1},
    "language":  {"type": ["string", "null"]}
  }
}`)
)

type complaintRequest struct {
	Message   string  `json:"message"`
	Complaint string  `json:"complaint"`
	Language  *string `json:"language"`
}

type chatResponse struct {
	Response  string                    `json:"response"`
	Analysis  *models.ComplaintAnalysis `json:"analysis"`
	Timestamp time.Time                 `json:"timestamp"`
	Language  string                    `json:"language"`
	RequestID string                    `json:"requestId"`
}

type analyzeResponse struct {
	*models.ComplaintAnalysis
	AIResponse string    `json:"aiResponse"`
	Language   string    `json:"language"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"requestId"`
}

type chatFailure struct {
	Error     string    `json:"error"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

type analyzeFailure struct {
	Error            string                    `json:"error"`
	FallbackAnalysis *models.ComplaintAnalysis `json:"fallbackAnalysis"`
}

type healthResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Providers ProviderStatus `json:"providers"`
	Dataset   dataset.Stats  `json:"dataset"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	project := s.ds.ProjectInfo()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   fmt.Sprintf("%s - %s", project.Name, project.Theme),
		"service":   s.cfg.ServiceName,
		"status":    "running",
		"version":   s.cfg.Version,
		"project":   project,
		"providers": s.cfg.Providers,
		"dataset":   s.ds.Stats(),
		"endpoints": endpoints,
		"timestamp": s.now(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Version:   s.cfg.Version,
		Timestamp: s.now(),
		Providers: s.cfg.Providers,
		Dataset:   s.ds.Stats(),
	})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ds.Complete())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Endpoint not found"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	defer func() {
		if rec := recover(); rec != nil {
			s.logPanic(r, requestID, rec)
			writeJSON(w, http.StatusInternalServerError, chatFailure{
				Error: errors.NewInternalError(fmt.Errorf("%v", rec)).Message,
				Response: fmt.Sprintf("I apologize for the error. Please contact CM Helpline %s for immediate assistance.",
					s.ds.HelplineNumber("cm_helpline")),
				Timestamp: s.now(),
			})
		}
	}()

	req, status, msg := s.decode(w, r, chatSchema, "message", "Message is required")
	if req == nil {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	s.logger.Info("Processing chat message", map[string]interface{}{
		"request_id": requestID,
		"remote":     clientIP(r),
		"length":     len(req.Message),
	})

	result := s.processor.Process(r.Context(), requestID, req.Message, language(req))
	writeJSON(w, http.StatusOK, chatResponse{
		Response:  result.AIResponse,
		Analysis:  result.Analysis,
		Timestamp: s.now(),
		Language:  result.Language,
		RequestID: requestID,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	var text string
	defer func() {
		if rec := recover(); rec != nil {
			s.logPanic(r, requestID, rec)
			var fallback *models.ComplaintAnalysis
			if s.fallback != nil {
				fallback = s.fallback.Classify(text)
			}
			writeJSON(w, http.StatusInternalServerError, analyzeFailure{
				Error:            errors.NewInternalError(fmt.Errorf("%v", rec)).Message,
				FallbackAnalysis: fallback,
			})
		}
	}()

	req, status, msg := s.decode(w, r, analyzeSchema, "complaint", "Complaint text is required")
	if req == nil {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	text = req.Complaint

	s.logger.Info("Analyzing complaint", map[string]interface{}{
		"request_id": requestID,
		"remote":     clientIP(r),
		"length":     len(text),
	})

	result := s.processor.Process(r.Context(), requestID, text, language(req))
	writeJSON(w, http.StatusOK, analyzeResponse{
		ComplaintAnalysis: result.Analysis,
		AIResponse:        result.AIResponse,
		Language:          result.Language,
		Timestamp:         s.now(),
		RequestID:         requestID,
	})
}

// decode reads and validates the body. A missing, empty or wrongly typed text
// field and an unparsable body all map to missingMsg. On failure the returned
// string is the client-facing message.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema *validation.Schema, field, missingMsg string) (*complaintRequest, int, string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, "Request body too large"
		}
		return nil, http.StatusBadRequest, missingMsg
	}

	res := schema.ValidateJSON(body)
	if !res.Valid {
		if res.HasErrors(field) || res.HasErrors("(root)") {
			return nil, http.StatusBadRequest, missingMsg
		}
		return nil, http.StatusBadRequest, "Invalid request: " + res.Summary()
	}

	var req complaintRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, http.StatusBadRequest, missingMsg
	}
	text := req.Message
	if field == "complaint" {
		text = req.Complaint
	}
	if strings.TrimSpace(text) == "" {
		return nil, http.StatusBadRequest, missingMsg
	}
	return &req, http.StatusOK, ""
}

func (s *Server) logPanic(r *http.Request, requestID string, rec interface{}) {
	s.logger.Error("Pipeline panicked", map[string]interface{}{
		"request_id": requestID,
		"path":       r.URL.Path,
		"panic":      rec,
	})
}

func language(req *complaintRequest) string {
	if req.Language == nil {
		return ""
	}
	return strings.TrimSpace(*req.Language)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
