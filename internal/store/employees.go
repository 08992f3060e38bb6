package store

import (
	"context"
	"database/sql"
)

// EmployeeStore reads the tenant's employee directory.
type EmployeeStore struct {
	db *sql.DB
}

// NewEmployeeStore returns an employee store backed by the given database.
func NewEmployeeStore(db *sql.DB) *EmployeeStore {
	return &EmployeeStore{db: db}
}

// ListActive returns the tenant's active employees ordered by name, capped
// at 100 rows. A non-empty search filters by name or email, case
// insensitively.
func (s *EmployeeStore) ListActive(ctx context.Context, tenantID, search string) ([]Employee, error) {
	query := `SELECT id, name, email FROM employees WHERE tenant_id = $1 AND is_active = TRUE`
	args := []any{tenantID}
	if search != "" {
		query += ` AND (name ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name LIMIT 100`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]Employee, 0)
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}
