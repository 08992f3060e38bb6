// Package server defines the wire protocol shared by the hub and its
// clients: event names, payload shapes, and room naming.
package server

import (
	"encoding/json"
	"strings"
	"time"
)

// Server-to-client and client-to-server event names.
const (
	EventUserStatus        = "user:status"
	EventMessageNew        = "message:new"
	EventJoinConversation  = "join:conversation"
	EventLeaveConversation = "leave:conversation"
)

// Presence statuses carried by user:status events.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// ClientEvent is the JSON envelope clients send to subscribe to or leave a
// channel room.
type ClientEvent struct {
	Event     string `json:"event"`
	ChannelID string `json:"channelId"`
}

// ServerEvent is the JSON envelope for every frame the server pushes.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// StatusEvent is the user:status payload broadcast to a tenant room when an
// employee's connection opens or closes.
type StatusEvent struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Attachment describes one file reference carried by a message:new payload.
type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	FileSize int64  `json:"fileSize,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// MessagePayload is the message:new payload. It is supplied by the message
// store after durable persistence and is opaque to the hub.
type MessagePayload struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId"`
	SenderID       string       `json:"senderId"`
	SenderName     string       `json:"senderName"`
	Type           string       `json:"type"`
	Content        string       `json:"content,omitempty"`
	Attachments    []Attachment `json:"attachments"`
	CreatedAt      string       `json:"createdAt"`
}

// TenantRoom names the broadcast group every authenticated connection of a
// tenant belongs to.
func TenantRoom(tenantID string) string {
	return "tenant:" + tenantID
}

// ChannelRoom names the broadcast group for one channel within a tenant.
// Scoping the name by tenant keeps identical channel identifier strings in
// different tenants isolated from each other.
func ChannelRoom(tenantID, channelID string) string {
	return "tenant:" + tenantID + ":channel:" + channelID
}

// encodeEvent marshals a server event envelope for delivery.
func encodeEvent(event string, data any) ([]byte, error) {
	return json.Marshal(ServerEvent{Event: event, Data: data})
}

// newStatusEvent builds a user:status payload with a server-generated
// timestamp.
func newStatusEvent(employeeID, displayName, status string) StatusEvent {
	return StatusEvent{
		UserID:    employeeID,
		UserName:  displayName,
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// isExpectedCloseError checks if an error is expected during connection
// closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
