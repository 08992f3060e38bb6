package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// MessageStore persists chat messages, scoped by tenant through the owning
// channel.
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore returns a message store backed by the given database.
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// ListMessages returns the channel's messages joined with the sender's
// directory entry, newest first.
func (s *MessageStore) ListMessages(ctx context.Context, tenantID, channelID string, limit, offset int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.channel_id, m.employee_id, m.content, m.created_at, m.updated_at,
		        COALESCE(e.name, ''), COALESCE(e.email, '')
		 FROM chat_messages m
		 JOIN chat_channels c ON c.id = m.channel_id AND c.tenant_id = $1
		 LEFT JOIN employees e ON e.id = m.employee_id AND e.tenant_id = $1
		 WHERE m.channel_id = $2
		 ORDER BY m.created_at DESC
		 LIMIT $3 OFFSET $4`,
		tenantID, channelID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.EmployeeID, &m.Content, &m.CreatedAt, &m.UpdatedAt, &m.EmployeeName, &m.EmployeeEmail); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CreateMessage inserts a message and returns the stored row together with
// the sender's name and email, so the caller can broadcast a complete
// message:new payload without a second query.
func (s *MessageStore) CreateMessage(ctx context.Context, tenantID, channelID, employeeID, content string) (*Message, error) {
	var m Message
	err := s.db.QueryRowContext(ctx,
		`WITH inserted AS (
		     INSERT INTO chat_messages (id, channel_id, employee_id, content)
		     SELECT $1, c.id, $3, $4
		     FROM chat_channels c
		     WHERE c.id = $2 AND c.tenant_id = $5
		     RETURNING id, channel_id, employee_id, content, created_at, updated_at
		 )
		 SELECT i.id, i.channel_id, i.employee_id, i.content, i.created_at, i.updated_at,
		        COALESCE(e.name, ''), COALESCE(e.email, '')
		 FROM inserted i
		 LEFT JOIN employees e ON e.id = i.employee_id AND e.tenant_id = $5`,
		uuid.NewString(), channelID, employeeID, content, tenantID).
		Scan(&m.ID, &m.ChannelID, &m.EmployeeID, &m.Content, &m.CreatedAt, &m.UpdatedAt, &m.EmployeeName, &m.EmployeeEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Channel does not exist in this tenant.
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
