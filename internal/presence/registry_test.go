package presence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_AddAndList(t *testing.T) {
	r := NewRegistry()

	r.AddConnection("T1", "E1", "c1", "Alice")

	online := r.ListOnline("T1")
	require.Equal(t, []OnlineEmployee{{EmployeeID: "E1", DisplayName: "Alice", Status: "online"}}, online)
}

func TestRegistry_UnknownTenantIsEmptyNotNilError(t *testing.T) {
	r := NewRegistry()

	online := r.ListOnline("nope")
	require.NotNil(t, online)
	require.Empty(t, online)
}

func TestRegistry_OneRecordPerEmployeeNotPerConnection(t *testing.T) {
	r := NewRegistry()

	r.AddConnection("T1", "E1", "c1", "Alice")
	r.AddConnection("T1", "E1", "c2", "Alice")

	require.Len(t, r.ListOnline("T1"), 1)
}

func TestRegistry_MultiplicityAcrossDisconnects(t *testing.T) {
	r := NewRegistry()

	r.AddConnection("T1", "E1", "c1", "Alice")
	r.AddConnection("T1", "E1", "c2", "Alice")

	r.RemoveConnection("T1", "E1", "c1")
	require.Len(t, r.ListOnline("T1"), 1, "employee must stay online while one connection remains")

	r.RemoveConnection("T1", "E1", "c2")
	require.Empty(t, r.ListOnline("T1"))
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()

	r.AddConnection("T1", "E1", "c1", "Alice")
	r.RemoveConnection("T1", "E1", "c1")
	r.RemoveConnection("T1", "E1", "c1")
	r.RemoveConnection("T1", "E1", "never-existed")
	r.RemoveConnection("T2", "E9", "c9")

	require.Empty(t, r.ListOnline("T1"))
}

func TestRegistry_DisplayNameLastWriterWins(t *testing.T) {
	r := NewRegistry()

	r.AddConnection("T1", "E1", "c1", "Alice")
	r.AddConnection("T1", "E1", "c2", "Alice Smith")

	online := r.ListOnline("T1")
	require.Len(t, online, 1)
	require.Equal(t, "Alice Smith", online[0].DisplayName)
}

func TestRegistry_TenantIsolation(t *testing.T) {
	r := NewRegistry()

	r.AddConnection("T1", "E1", "c1", "Alice")
	r.AddConnection("T2", "E1", "c2", "Bob")

	require.Equal(t, "Alice", r.ListOnline("T1")[0].DisplayName)
	require.Equal(t, "Bob", r.ListOnline("T2")[0].DisplayName)

	r.RemoveConnection("T1", "E1", "c1")
	require.Empty(t, r.ListOnline("T1"))
	require.Len(t, r.ListOnline("T2"), 1)
}

func TestRegistry_ListIsSortedByEmployeeID(t *testing.T) {
	r := NewRegistry()

	r.AddConnection("T1", "E3", "c3", "Carol")
	r.AddConnection("T1", "E1", "c1", "Alice")
	r.AddConnection("T1", "E2", "c2", "Bob")

	online := r.ListOnline("T1")
	require.Equal(t, "E1", online[0].EmployeeID)
	require.Equal(t, "E2", online[1].EmployeeID)
	require.Equal(t, "E3", online[2].EmployeeID)
}

// The registry must never retain empty intermediate maps; size is bounded by
// the online population, not historical churn.
func TestRegistry_EmptyEntriesAreGarbageCollected(t *testing.T) {
	r := NewRegistry()

	r.AddConnection("T1", "E1", "c1", "Alice")
	r.AddConnection("T1", "E2", "c2", "Bob")

	r.RemoveConnection("T1", "E1", "c1")
	require.NotContains(t, r.tenants["T1"], "E1")
	require.Contains(t, r.tenants["T1"], "E2")

	r.RemoveConnection("T1", "E2", "c2")
	require.NotContains(t, r.tenants, "T1")
}

// Invariant check: an employee appears in ListOnline iff at least one
// connection is registered for them, after every operation.
func TestRegistry_InvariantAfterEveryOperation(t *testing.T) {
	r := NewRegistry()

	check := func(tenantID string, want map[string]bool) {
		t.Helper()
		got := make(map[string]bool)
		for _, o := range r.ListOnline(tenantID) {
			got[o.EmployeeID] = true
		}
		for employeeID, online := range want {
			require.Equal(t, online, got[employeeID], "employee %s", employeeID)
		}
	}

	r.AddConnection("T1", "E1", "c1", "Alice")
	check("T1", map[string]bool{"E1": true})

	r.AddConnection("T1", "E1", "c2", "Alice")
	check("T1", map[string]bool{"E1": true})

	r.RemoveConnection("T1", "E1", "c1")
	check("T1", map[string]bool{"E1": true})

	r.RemoveConnection("T1", "E1", "c2")
	check("T1", map[string]bool{"E1": false})
}
