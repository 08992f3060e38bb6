package api

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// tenantID extracts the X-Tenant-Id header. A missing header is a caller
// error; every route on this surface is tenant-scoped.
func tenantID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-Tenant-Id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing x-tenant-id header")
		return "", false
	}
	return id, true
}
