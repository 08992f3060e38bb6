package api

import (
	"encoding/json"
	"net/http"

	"github.com/modulys/pax-chat/internal/store"
)

func (h *Handler) listChannels(w http.ResponseWriter, r *http.Request) {
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
		h.log.Error().Err(err).Str("tenantId", tenant).Msg("List channels failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": channels, "count": len(channels)})
}

func (h *Handler) createChannel(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	if h.channels == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence unavailable")
		return
	}

	var in struct {
		Name                string  `json:"name"`
		Description         *string `json:"description"`
		IsPrivate           bool    `json:"is_private"`
		CreatedByEmployeeID string  `json:"created_by_employee_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" || in.CreatedByEmployeeID == "" {
		writeError(w, http.StatusBadRequest, "name and created_by_employee_id are required")
		return
	}

	channel, err := h.channels.CreateChannel(r.Context(), tenant, store.NewChannel{
		Name:                in.Name,
		Description:         in.Description,
		IsPrivate:           in.IsPrivate,
		CreatedByEmployeeID: in.CreatedByEmployeeID,
	})
	if err != nil {
		h.log.Error().Err(err).Str("tenantId", tenant).Msg("Create channel failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusCreated, channel)
}

func (h *Handler) getChannel(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	if h.channels == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence unavailable")
		return
	}
	channelID := r.PathValue("channelId")

	channel, err := h.channels.GetChannel(r.Context(), tenant, channelID)
	if err != nil {
		h.log.Error().Err(err).Str("tenantId", tenant).Str("channelId", channelID).Msg("Get channel failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if channel == nil {
		writeError(w, http.StatusNotFound, "Channel not found")
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	if h.channels == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence unavailable")
		return
	}
	channelID := r.PathValue("channelId")

	members, err := h.channels.ListMembers(r.Context(), tenant, channelID)
	if err != nil {
		h.log.Error().Err(err).Str("tenantId", tenant).Str("channelId", channelID).Msg("List members failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members, "count": len(members)})
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	if h.channels == nil {
		writeError(w, http.StatusServiceUnavailable, "Persistence unavailable")
		return
	}
	channelID := r.PathValue("channelId")

	var in struct {
		EmployeeID string `json:"employee_id"`
		Role       string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required")
		return
	}
	role := in.Role
	if role != "owner" && role != "admin" && role != "member" {
		role = "member"
	}

	member, err := h.channels.AddMember(r.Context(), tenant, channelID, in.EmployeeID, role)
	if err != nil {
		h.log.Error().Err(err).Str("tenantId", tenant).Str("channelId", channelID).Msg("Add member failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Channel not found")
		return
	}
	writeJSON(w, http.StatusCreated, member)
}
