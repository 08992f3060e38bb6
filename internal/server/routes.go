// Package server wires HTTP handlers into a ServeMux via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with the health
// check, the WebSocket endpoint, and the REST API surface.
func SetupRoutes(ws http.HandlerFunc, api http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HealthHandler)
	mux.HandleFunc("GET /ws", ws)
	if api != nil {
		mux.Handle("/", api)
	}
	return mux
}
