package api

import (
	"net/http"
	"strings"
)

// listOnlineUsers answers "who is online" from the presence registry. An
// unknown tenant yields an empty list, not an error.
func (h *Handler) listOnlineUsers(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.presence.ListOnline(tenant))
}

// listUsers lists the tenant's active employees for the conversation picker.
// Presence is not consulted here; every entry reports "offline", as the
// frontend resolves live status via /users/online and user:status events.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	if h.employees == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence unavailable")
		return
	}

	employees, err := h.employees.ListActive(r.Context(), tenant, r.URL.Query().Get("search"))
	if err != nil {
		h.log.Error().Err(err).Str("tenantId", tenant).Msg("List users failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	type userEntry struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Status string `json:"status"`
	}
	users := make([]userEntry, 0, len(employees))
	for _, e := range employees {
		users = append(users, userEntry{ID: e.ID, Name: e.Name, Email: e.Email, Status: "offline"})
	}
	writeJSON(w, http.StatusOK, users)
}

// usersStatus is a compatibility stub: every requested id reports "offline".
func (h *Handler) usersStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := tenantID(w, r); !ok {
		return
	}

	status := make(map[string]string)
	for _, id := range strings.Split(r.URL.Query().Get("userIds"), ",") {
		if id != "" {
			status[id] = "offline"
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// unreadCount is a compatibility stub for the frontend's badge counter.
func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	if _, ok := tenantID(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": 0})
}
