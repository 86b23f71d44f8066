// Package handlers exposes the conversation service over HTTP for clients
// that are not on Discord (internal dashboards, smoke tests).
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
	"github.com/catturtle123/discord-github-issue-bot/internal/conversation"
	"github.com/catturtle123/discord-github-issue-bot/internal/session"
	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

// ConversationHandler serves the REST surface of the issue agent.
type ConversationHandler struct {
	svc    *conversation.Service
	logger *logging.Logger
}

// NewConversationHandler creates the handler.
func NewConversationHandler(svc *conversation.Service, logger *logging.Logger) *ConversationHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConversationHandler{svc: svc, logger: logger}
}

type startRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	OriginatorID   string `json:"originator_id"`
	Message        string `json:"message"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type turnPayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type turnResponse struct {
	ConversationID string        `json:"conversation_id"`
	Phase          agent.Phase   `json:"phase"`
	Replies        []turnPayload `json:"replies"`
}

type snapshotResponse struct {
	ConversationID string            `json:"conversation_id"`
	OriginatorID   string            `json:"originator_id"`
	Phase          agent.Phase       `json:"phase"`
	Record         agent.IssueRecord `json:"record"`
	Draft          *agent.Draft      `json:"draft,omitempty"`
	Judgment       *agent.Judgment   `json:"judgment,omitempty"`
	History        []turnPayload     `json:"history"`
}

// Start handles POST /conversations.
func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	id := req.ConversationID
	if id == "" {
		id = uuid.NewString()
	}

	turns, err := h.svc.Start(r.Context(), id, req.OriginatorID, req.Message)
	if err != nil {
		h.logger.Error("failed to start conversation", "conversation_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "conversation backend unavailable")
		return
	}

	st, err := h.svc.Snapshot(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	writeJSON(w, http.StatusCreated, turnResponse{
		ConversationID: id,
		Phase:          st.Phase,
		Replies:        toPayload(turns),
	})
}

// Message handles POST /conversations/{id}/messages.
func (h *ConversationHandler) Message(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	turns, err := h.svc.Message(r.Context(), id, req.Message)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("turn failed", "conversation_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "conversation backend unavailable")
		return
	}

	st, err := h.svc.Snapshot(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{
		ConversationID: id,
		Phase:          st.Phase,
		Replies:        toPayload(turns),
	})
}

// Get handles GET /conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	st, err := h.svc.Snapshot(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		writeError(w, http.StatusBadGateway, "conversation backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{
		ConversationID: st.ConversationID,
		OriginatorID:   st.OriginatorID,
		Phase:          st.Phase,
		Record:         st.Record,
		Draft:          st.Draft,
		Judgment:       st.Judgment,
		History:        toPayload(st.History),
	})
}

// Delete handles DELETE /conversations/{id}.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Discard(r.Context(), id); err != nil && !errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusBadGateway, "conversation backend unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toPayload(turns []agent.Turn) []turnPayload {
	out := make([]turnPayload, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnPayload{Role: string(t.Role), Content: t.Content})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
