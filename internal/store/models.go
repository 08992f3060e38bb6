package store

import "time"

// Channel is one chat channel row. JSON field names match the REST API
// responses.
type Channel struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         *string   `json:"description"`
	IsPrivate           bool      `json:"is_private"`
	CreatedByEmployeeID string    `json:"created_by_employee_id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewChannel carries the caller-supplied fields for channel creation.
type NewChannel struct {
	Name                string  `json:"name"`
	Description         *string `json:"description"`
	IsPrivate           bool    `json:"is_private"`
	CreatedByEmployeeID string  `json:"created_by_employee_id"`
}

// Member is one channel membership row joined with the employee directory.
type Member struct {
	ID            string    `json:"id"`
	ChannelID     string    `json:"channel_id"`
	EmployeeID    string    `json:"employee_id"`
	Role          string    `json:"role"`
	JoinedAt      time.Time `json:"joined_at"`
	EmployeeName  string    `json:"employee_name,omitempty"`
	EmployeeEmail string    `json:"employee_email,omitempty"`
}

// Message is one chat message row, joined with the sender's directory entry
// where the query provides it.
type Message struct {
	ID            string    `json:"id"`
	ChannelID     string    `json:"channel_id"`
	EmployeeID    string    `json:"employee_id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	EmployeeName  string    `json:"employee_name,omitempty"`
	EmployeeEmail string    `json:"employee_email,omitempty"`
}

// Employee is one directory entry exposed by the users listing.
type Employee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
