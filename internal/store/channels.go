package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ChannelStore persists chat channels and their memberships, scoped by
// tenant on every query.
type ChannelStore struct {
	db *sql.DB
}

// NewChannelStore returns a channel store backed by the given database.
func NewChannelStore(db *sql.DB) *ChannelStore {
	return &ChannelStore{db: db}
}

// ListChannels returns the tenant's channels, newest first.
func (s *ChannelStore) ListChannels(ctx context.Context, tenantID string) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, is_private, created_by_employee_id, created_at, updated_at
		 FROM chat_channels
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := make([]Channel, 0)
	for rows.Next() {
		var c Channel
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description, &c.IsPrivate, &c.CreatedByEmployeeID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if description.Valid {
			c.Description = &description.String
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// CreateChannel inserts a channel for the tenant and returns the stored row.
func (s *ChannelStore) CreateChannel(ctx context.Context, tenantID string, in NewChannel) (*Channel, error) {
	var c Channel
	var description sql.NullString
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO chat_channels (id, tenant_id, name, description, is_private, created_by_employee_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, name, description, is_private, created_by_employee_id, created_at, updated_at`,
		uuid.NewString(), tenantID, in.Name, in.Description, in.IsPrivate, in.CreatedByEmployeeID).
		Scan(&c.ID, &c.Name, &description, &c.IsPrivate, &c.CreatedByEmployeeID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		c.Description = &description.String
	}
	return &c, nil
}

// GetChannel returns the tenant's channel by id, or nil if not found. It
// returns an error only for database failures, not for missing rows.
func (s *ChannelStore) GetChannel(ctx context.Context, tenantID, channelID string) (*Channel, error) {
	var c Channel
	var description sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, is_private, created_by_employee_id, created_at, updated_at
		 FROM chat_channels
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, channelID).
		Scan(&c.ID, &c.Name, &description, &c.IsPrivate, &c.CreatedByEmployeeID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if description.Valid {
		c.Description = &description.String
	}
	return &c, nil
}

// ListMembers returns the channel's members joined with the employee
// directory, in join order.
func (s *ChannelStore) ListMembers(ctx context.Context, tenantID, channelID string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.channel_id, m.employee_id, m.role, m.joined_at,
		        COALESCE(e.name, ''), COALESCE(e.email, '')
		 FROM chat_channel_members m
		 JOIN chat_channels c ON c.id = m.channel_id AND c.tenant_id = $1
		 LEFT JOIN employees e ON e.id = m.employee_id AND e.tenant_id = $1
		 WHERE m.channel_id = $2
		 ORDER BY m.joined_at`,
		tenantID, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.EmployeeID, &m.Role, &m.JoinedAt, &m.EmployeeName, &m.EmployeeEmail); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember adds an employee to a channel, updating the role if the
// membership already exists.
func (s *ChannelStore) AddMember(ctx context.Context, tenantID, channelID, employeeID, role string) (*Member, error) {
	var m Member
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO chat_channel_members (id, channel_id, employee_id, role)
		 SELECT $1, c.id, $3, $4
		 FROM chat_channels c
		 WHERE c.id = $2 AND c.tenant_id = $5
		 ON CONFLICT (channel_id, employee_id) DO UPDATE SET role = EXCLUDED.role
		 RETURNING id, channel_id, employee_id, role, joined_at`,
		uuid.NewString(), channelID, employeeID, role, tenantID).
		Scan(&m.ID, &m.ChannelID, &m.EmployeeID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Channel does not exist in this tenant.
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
