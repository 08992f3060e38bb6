// Package api implements the tenant-scoped REST surface: channel and
// message CRUD backed by the stores, plus the presence and compatibility
// endpoints the frontend expects. Every route requires an X-Tenant-Id
// header.
package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/modulys/pax-chat/internal/presence"
	"github.com/modulys/pax-chat/internal/server"
	"github.com/modulys/pax-chat/internal/store"
)

// ChannelStore is the channel persistence the handlers depend on.
type ChannelStore interface {
	ListChannels(ctx context.Context, tenantID string) ([]store.Channel, error)
	CreateChannel(ctx context.Context, tenantID string, in store.NewChannel) (*store.Channel, error)
	GetChannel(ctx context.Context, tenantID, channelID string) (*store.Channel, error)
	ListMembers(ctx context.Context, tenantID, channelID string) ([]store.Member, error)
	AddMember(ctx context.Context, tenantID, channelID, employeeID, role string) (*store.Member, error)
}

// MessageStore is the message persistence the handlers depend on.
type MessageStore interface {
	ListMessages(ctx context.Context, tenantID, channelID string, limit, offset int) ([]store.Message, error)
	CreateMessage(ctx context.Context, tenantID, channelID, employeeID, content string) (*store.Message, error)
}

// EmployeeStore is the directory read surface the handlers depend on.
type EmployeeStore interface {
	ListActive(ctx context.Context, tenantID, search string) ([]store.Employee, error)
}

// PresenceReader answers "who is online" for a tenant. An unknown tenant
// means nobody online, never an error.
type PresenceReader interface {
	ListOnline(tenantID string) []presence.OnlineEmployee
}

// Broadcaster fans a message:new event out to the channel room after the
// message row is durably persisted.
type Broadcaster interface {
	BroadcastMessage(tenantID, channelID string, payload server.MessagePayload)
}

// Handler serves the REST API. Store fields may be nil when the service
// runs without a database; the affected routes then answer 503.
type Handler struct {
	channels    ChannelStore
	messages    MessageStore
	employees   EmployeeStore
	presence    PresenceReader
	broadcaster Broadcaster
	log         zerolog.Logger
}

// NewHandler creates the REST handler. presence and broadcaster are
// required; the stores may be nil.
func NewHandler(channels ChannelStore, messages MessageStore, employees EmployeeStore, presenceReader PresenceReader, broadcaster Broadcaster, logger zerolog.Logger) *Handler {
	return &Handler{
		channels:    channels,
		messages:    messages,
		employees:   employees,
		presence:    presenceReader,
		broadcaster: broadcaster,
		log:         logger.With().Str("component", "api").Logger(),
	}
}

// Routes returns the mux serving the REST surface.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels", h.listChannels)
	mux.HandleFunc("POST /channels", h.createChannel)
	mux.HandleFunc("GET /channels/{channelId}", h.getChannel)
	mux.HandleFunc("GET /channels/{channelId}/members", h.listMembers)
	mux.HandleFunc("POST /channels/{channelId}/members", h.addMember)
	mux.HandleFunc("GET /channels/{channelId}/messages", h.listMessages)
	mux.HandleFunc("POST /channels/{channelId}/messages", h.createMessage)
	mux.HandleFunc("GET /users/online", h.listOnlineUsers)
	mux.HandleFunc("GET /users/status", h.usersStatus)
	mux.HandleFunc("GET /users", h.listUsers)
	mux.HandleFunc("GET /conversations", h.listConversations)
	mux.HandleFunc("GET /unread-count", h.unreadCount)
	return mux
}
