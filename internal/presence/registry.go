// Package presence maintains the in-memory registry of which employees
// currently hold open connections, partitioned by tenant.
package presence

import (
	"sort"
	"sync"
)

// StatusOnline is the only status ListOnline reports; offline employees
// simply have no entry.
const StatusOnline = "online"

// OnlineEmployee is one record in a ListOnline result. Connection
// multiplicity is an internal detail and never exposed.
type OnlineEmployee struct {
	EmployeeID  string `json:"userId"`
	DisplayName string `json:"userName"`
	Status      string `json:"status"`
}

// entry records the open connections and last-known display name for one
// (tenant, employee) pair. An entry with an empty connection set must not
// exist in the registry.
type entry struct {
	connections map[string]struct{}
	name        string
}

// Registry maps tenant -> employee -> live connection identifiers, with a
// display name cache. All operations are atomic relative to each other;
// reads may come from HTTP goroutines while the hub mutates.
type Registry struct {
	mu      sync.RWMutex
	tenants map[string]map[string]*entry
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{tenants: make(map[string]map[string]*entry)}
}

// AddConnection records connID as an open connection for the employee,
// creating the (tenant, employee) entry if absent. The cached display name
// is overwritten by whichever connection registered most recently.
func (r *Registry) AddConnection(tenantID, employeeID, connID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byEmployee, ok := r.tenants[tenantID]
	if !ok {
		byEmployee = make(map[string]*entry)
		r.tenants[tenantID] = byEmployee
	}
	e, ok := byEmployee[employeeID]
	if !ok {
		e = &entry{connections: make(map[string]struct{})}
		byEmployee[employeeID] = e
	}
	e.connections[connID] = struct{}{}
	e.name = displayName
}

// RemoveConnection drops connID from the employee's connection set. Removing
// an unknown identifier is a no-op. Entries that become empty are deleted,
// as is the tenant map once it holds no employees, so registry size is
// bounded by the actual online population.
func (r *Registry) RemoveConnection(tenantID, employeeID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byEmployee, ok := r.tenants[tenantID]
	if !ok {
		return
	}
	e, ok := byEmployee[employeeID]
	if !ok {
		return
	}
	delete(e.connections, connID)
	if len(e.connections) == 0 {
		delete(byEmployee, employeeID)
	}
	if len(byEmployee) == 0 {
		delete(r.tenants, tenantID)
	}
}

// ListOnline returns one record per employee currently present for the
// tenant, sorted by employee id. An unknown tenant yields an empty slice,
// never an error.
func (r *Registry) ListOnline(tenantID string) []OnlineEmployee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byEmployee := r.tenants[tenantID]
	online := make([]OnlineEmployee, 0, len(byEmployee))
	for employeeID, e := range byEmployee {
		online = append(online, OnlineEmployee{
			EmployeeID:  employeeID,
			DisplayName: e.name,
			Status:      StatusOnline,
		})
	}
	sort.Slice(online, func(i, j int) bool {
		return online[i].EmployeeID < online[j].EmployeeID
	})
	return online
}
