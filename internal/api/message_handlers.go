package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/modulys/pax-chat/internal/server"
)

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	if h.messages == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence unavailable")
		return
	}
	channelID := r.PathValue("channelId")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	messages, err := h.messages.ListMessages(r.Context(), tenant, channelID, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Str("tenantId", tenant).Str("channelId", channelID).Msg("List messages failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages, "count": len(messages)})
}

// createMessage persists a message and then fans the message:new event out
// to the channel room. The broadcast happens only after the row is durably
// stored; connections not subscribed to the channel never see it.
func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	if h.messages == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence unavailable")
		return
	}
	channelID := r.PathValue("channelId")

	var in struct {
		EmployeeID string `json:"employee_id"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.EmployeeID == "" || in.Content == "" {
		writeError(w, http.StatusBadRequest, "employee_id and content are required")
		return
	}

	message, err := h.messages.CreateMessage(r.Context(), tenant, channelID, in.EmployeeID, in.Content)
	if err != nil {
		h.log.Error().Err(err).Str("tenantId", tenant).Str("channelId", channelID).Msg("Send message failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if message == nil {
		writeError(w, http.StatusNotFound, "Channel not found")
		return
	}

	h.broadcaster.BroadcastMessage(tenant, channelID, server.MessagePayload{
		ID:             message.ID,
		ConversationID: message.ChannelID,
		SenderID:       message.EmployeeID,
		SenderName:     message.EmployeeName,
		Type:           "text",
		Content:        message.Content,
		Attachments:    []server.Attachment{},
		CreatedAt:      message.CreatedAt.UTC().Format(time.RFC3339),
	})

	writeJSON(w, http.StatusCreated, message)
}
