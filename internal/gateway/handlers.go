package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/voyago/voyago/internal/aggregator"
	"github.com/voyago/voyago/internal/search"
	"github.com/voyago/voyago/internal/store"
)

// searchBody is the POST /v1/flights/search request payload.
type searchBody struct {
	ChatID string          `json:"chatId"`
	Params json.RawMessage `json:"params"`
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	// ToolCallID points to the already-running call for duplicate submissions.
	ToolCallID string `json:"toolCallId,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// HealthResponse is returned by the public health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// handleSearch runs one flight search synchronously and returns its result.
// Duplicate in-flight submissions get 409 with the running call's id.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if body.ChatID == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "chatId is required")
		return
	}
	if len(body.Params) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_body", "params is required")
		return
	}

	result, err := s.search.Execute(r.Context(), body.ChatID, body.Params)
	if err != nil {
		var verr *search.ValidationError
		var inFlight *search.ErrInFlight
		var aggErr *aggregator.AggregateError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error: "validation_failed", Message: verr.Message, Field: verr.Field,
			})
		case errors.As(err, &inFlight):
			writeJSON(w, http.StatusConflict, errorBody{
				Error: "in_flight", Message: err.Error(), ToolCallID: inFlight.ToolCallID,
			})
		case errors.As(err, &aggErr):
			writeJSON(w, http.StatusBadGateway, errorBody{
				Error: "all_providers_failed", Message: err.Error(), Retryable: aggErr.Retryable(),
			})
		default:
			s.log.Error().Err(err).Str("chat_id", body.ChatID).Msg("search failed")
			writeError(w, http.StatusInternalServerError, "internal", "search failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetToolCall(w http.ResponseWriter, r *http.Request) {
	tc, err := s.toolCalls.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no such tool call")
			return
		}
		s.log.Error().Err(err).Msg("load tool call")
		writeError(w, http.StatusInternalServerError, "internal", "load failed")
		return
	}
	writeJSON(w, http.StatusOK, tc)
}

func (s *Server) handleListToolCalls(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "invalid_params", "chatId query parameter is required")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "invalid_params", "limit must be 1-500")
			return
		}
		limit = n
	}

	calls, err := s.toolCalls.ListByChat(chatID, limit)
	if err != nil {
		s.log.Error().Err(err).Str("chat_id", chatID).Msg("list tool calls")
		writeError(w, http.StatusInternalServerError, "internal", "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"toolCalls": calls})
}
