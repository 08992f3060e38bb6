package api

import (
	"net/http"
	"strings"
	"time"
)

// conversationEntry is the shape the frontend's conversation list expects;
// channels are mapped onto it one to one.
type conversationEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	IsGroup      bool      `json:"isGroup"`
	Participants []string  `json:"participants"`
	UnreadCount  int       `json:"unreadCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	if h.channels == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence unavailable")
		return
	}

	channels, err := h.channels.ListChannels(r.Context(), tenant)
	if err != nil {
		h.log.Error().Err(err).Str("tenantId", tenant).Msg("List conversations failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	search := strings.ToLower(r.URL.Query().Get("search"))
	conversations := make([]conversationEntry, 0, len(channels))
	for _, c := range channels {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		conversations = append(conversations, conversationEntry{
			ID:           c.ID,
			Name:         c.Name,
			IsGroup:      true,
			Participants: []string{},
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": conversations, "total": len(conversations)})
}
