// Package server exposes the HTTP handlers for WebSocket upgrades and the
// health check.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/modulys/pax-chat/internal/auth"
)

// WebSocketOptions configures the upgrade handler and the per-connection
// limits applied to accepted clients.
type WebSocketOptions struct {
	AllowedOrigins []string
	MaxMessageSize int64
	RateBurst      int
	RateRefill     time.Duration
}

// handshakeToken extracts the bearer token from the Authorization header or
// the token query parameter. Either carrier is accepted; absence means the
// handshake is unauthenticated.
func handshakeToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

// NewWebSocketHandler returns the handler for the WebSocket endpoint. It
// verifies the handshake token before upgrading; a failed verification is
// rejected with 401 and touches no registry or room state. On success the
// client is handed to the hub, which completes the connect sequence.
func NewWebSocketHandler(hub *Hub, verifier *auth.Verifier, opts WebSocketOptions, logger zerolog.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     newOriginChecker(opts.AllowedOrigins, logger).check,
	}
	settings := clientSettings{
		maxMessageSize: opts.MaxMessageSize,
		rateBurst:      opts.RateBurst,
		rateRefill:     opts.RateRefill,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		claims, err := verifier.Verify(handshakeToken(r))
		if err != nil {
			logger.Warn().Err(err).Str("remoteAddr", r.RemoteAddr).
				Msg("WebSocket connection rejected: invalid or missing token")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		client := newClient(conn, hub, *claims, settings, logger)

		// The hub completes the connect sequence and launches the pumps.
		hub.Register(client)
	}
}

// HealthHandler reports service liveness.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"service":   "pax-chat",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
