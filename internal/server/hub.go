// Package server coordinates connection registration, room membership,
// presence tracking, and event broadcast for the chat WebSocket layer via
// the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/modulys/pax-chat/internal/presence"
)

// subscription asks the hub to add or remove a client from one channel room.
type subscription struct {
	client    *Client
	channelID string
}

// frame is one encoded event addressed to every current member of a room.
type frame struct {
	room    string
	payload []byte
}

// Hub owns all live client connections, the room membership maps, and the
// presence registry. Every mutation flows through the Run loop, which is the
// single dispatch point that gives per-room delivery ordering; the mutex only
// guards the maps against concurrent reads from send paths.
type Hub struct {
	clients     map[*Client]bool
	rooms       map[string]map[*Client]struct{}
	presence    *presence.Registry
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan frame
	mutex       sync.RWMutex
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	log         zerolog.Logger
}

// NewHub creates a Hub backed by the given presence registry. The returned
// Hub is ready once Run is started in its own goroutine.
func NewHub(registry *presence.Registry, logger zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]struct{}),
		presence:    registry,
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		broadcast:   make(chan frame, 64),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		log:         logger.With().Str("component", "hub").Logger(),
	}
}

// Presence returns the registry backing this hub, for read-side collaborators
// such as the online-users endpoint.
func (h *Hub) Presence() *presence.Registry {
	return h.presence
}

// Register hands an authenticated client to the hub. The hub joins it to its
// tenant room, records presence, broadcasts the online status, and starts
// the read/write pumps. Clients arriving after shutdown began are refused
// and their connection closed.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		if client != nil && client.conn != nil {
			_ = client.conn.Close()
		}
	}
}

// Unregister asks the hub to tear a client down. Safe to call more than
// once; only the first call has any effect.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// BroadcastStatus delivers a user:status event with a server-generated
// timestamp to every connection currently in the tenant room. Broadcasting
// to an empty room is a no-op, not an error.
func (h *Hub) BroadcastStatus(tenantID, employeeID, displayName, status string) {
	payload, err := encodeEvent(EventUserStatus, newStatusEvent(employeeID, displayName, status))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode user:status event")
		return
	}
	h.enqueue(frame{room: TenantRoom(tenantID), payload: payload})
}

// BroadcastMessage delivers a message:new event to every connection joined
// to the channel room. The payload is supplied verbatim by the message store
// after durable persistence; the hub does not interpret it. Broadcasting to
// an empty room is a no-op.
func (h *Hub) BroadcastMessage(tenantID, channelID string, payload MessagePayload) {
	encoded, err := encodeEvent(EventMessageNew, payload)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode message:new event")
		return
	}
	h.enqueue(frame{room: ChannelRoom(tenantID, channelID), payload: encoded})
	h.log.Debug().
		Str("tenantId", tenantID).
		Str("channelId", channelID).
		Str("messageId", payload.ID).
		Msg("Broadcast message:new")
}

func (h *Hub) enqueue(f frame) {
	select {
	case h.broadcast <- f:
	case <-h.ctx.Done():
	}
}

func (h *Hub) requestSubscribe(sub subscription) {
	select {
	case h.subscribe <- sub:
	case <-h.ctx.Done():
	}
}

func (h *Hub) requestUnsubscribe(sub subscription) {
	select {
	case h.unsubscribe <- sub:
	case <-h.ctx.Done():
	}
}

// Run starts the hub's event loop. All registry and room mutations happen
// here, one event at a time, so no two of them ever interleave partially.
// This method should be called in a separate goroutine as it runs until
// Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn().Msg("Received nil client registration; skipping")
				continue
			}
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case sub := <-h.subscribe:
			h.handleSubscribe(sub)

		case sub := <-h.unsubscribe:
			h.handleUnsubscribe(sub)

		case f := <-h.broadcast:
			h.deliver(f.room, f.payload)
		}
	}
}

// handleRegister wires an authenticated client into the hub. The sequence is
// a contract: tenant room join, then presence registration, then the online
// broadcast, so a listener that queries the registry right after receiving
// the broadcast sees a consistent view.
func (h *Hub) handleRegister(client *Client) {
	tenantRoom := TenantRoom(client.claims.TenantID)

	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	h.addToRoomLocked(client, tenantRoom)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.presence.AddConnection(client.claims.TenantID, client.claims.EmployeeID, client.id, client.claims.DisplayName)

	h.broadcastStatusNow(client, StatusOnline)

	h.log.Info().
		Str("connId", client.id).
		Str("tenantId", client.claims.TenantID).
		Str("employeeId", client.claims.EmployeeID).
		Int("totalClients", clientCount).
		Msg("Client connected")

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// handleUnregister removes a client from every room it joined in one atomic
// step, deregisters its presence, and broadcasts the offline status. It fires
// exactly once per client; later calls are no-ops.
//
// The offline broadcast is unconditional even when the employee still has
// other open connections; downstream consumers rely on that behavior.
func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	client.closed = true
	for room := range client.rooms {
		h.removeFromRoomLocked(client, room)
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	close(client.send)

	h.presence.RemoveConnection(client.claims.TenantID, client.claims.EmployeeID, client.id)

	h.broadcastStatusNow(client, StatusOffline)

	h.log.Info().
		Str("connId", client.id).
		Str("tenantId", client.claims.TenantID).
		Str("employeeId", client.claims.EmployeeID).
		Int("totalClients", clientCount).
		Msg("Client disconnected")
}

// handleSubscribe joins a client to a channel room within its own tenant.
// Joining twice is a no-op. The channel is not validated against the channel
// store; any name a client can produce is accepted.
func (h *Hub) handleSubscribe(sub subscription) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[sub.client]; !ok || sub.client.closed {
		return
	}
	h.addToRoomLocked(sub.client, ChannelRoom(sub.client.claims.TenantID, sub.channelID))
}

// handleUnsubscribe removes a client from a channel room. Leaving a room the
// client never joined is a no-op.
func (h *Hub) handleUnsubscribe(sub subscription) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.removeFromRoomLocked(sub.client, ChannelRoom(sub.client.claims.TenantID, sub.channelID))
}

func (h *Hub) addToRoomLocked(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
}

func (h *Hub) removeFromRoomLocked(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// broadcastStatusNow encodes and delivers a user:status event for the client
// from within the run loop, preserving the register/deregister ordering
// contract.
func (h *Hub) broadcastStatusNow(client *Client, status string) {
	payload, err := encodeEvent(EventUserStatus, newStatusEvent(client.claims.EmployeeID, client.claims.DisplayName, status))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode user:status event")
		return
	}
	h.deliver(TenantRoom(client.claims.TenantID), payload)
}

// deliver sends the payload to every current member of the room. Members
// whose send buffers are full are torn down through the regular unregister
// path so their presence state stays consistent.
func (h *Hub) deliver(room string, payload []byte) {
	members := h.roomSnapshot(room)
	if len(members) == 0 {
		return
	}

	var failed []*Client
	for _, client := range members {
		if !h.safeSend(client, payload) {
			failed = append(failed, client)
		}
	}

	for _, client := range failed {
		h.log.Warn().
			Str("connId", client.id).
			Str("room", room).
			Msg("Dropping client with full send buffer")
		h.handleUnregister(client)
	}
}

// roomSnapshot returns a point-in-time copy of a room's membership. A
// connection joining after the snapshot never receives the event.
func (h *Hub) roomSnapshot(room string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	members := make([]*Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		members = append(members, client)
	}
	return members
}

func (h *Hub) safeSend(client *Client, payload []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warn().Interface("panic", r).Msg("Recovered from panic in safeSend")
		}
	}()

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// shutdownClients closes all active client connections so their pumps exit.
func (h *Hub) shutdownClients() {
	h.log.Info().Msg("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.log.Warn().Err(err).Str("connId", client.id).Msg("Error closing client connection")
			}
		}
	}

	h.log.Info().Int("count", len(clients)).Msg("Closed client connections")
}

// Shutdown stops the run loop and waits for all client goroutines to finish,
// or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info().Msg("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info().Msg("Hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn().Msg("Hub shutdown timeout reached; some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
