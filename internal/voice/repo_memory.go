package voice

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory OwnerResolver + CallStore for tests and early
// development. It is not intended for production use.
type MemoryStore struct {
	mu sync.Mutex

	// Owners maps call_agent_id to the owning user ids. More than one entry
	// per agent models a broken provisioning state.
	Owners map[string][]string

	Records []CallRecord

	// InsertErr, when set, is returned by InsertCall to simulate storage failures.
	InsertErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Owners: map[string][]string{}}
}

func (m *MemoryStore) Link(agentID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Owners[agentID] = append(m.Owners[agentID], userID)
}

func (m *MemoryStore) ResolveOwner(ctx context.Context, agentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owners := m.Owners[agentID]
	if len(owners) != 1 {
		return "", ErrAgentNotLinked
	}
	return owners[0], nil
}

func (m *MemoryStore) InsertCall(ctx context.Context, rec CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.Records = append(m.Records, rec)
	return nil
}

func (m *MemoryStore) ListCalls(ctx context.Context, userID string, since time.Time, limit int) ([]CallRecord, error) {
	if userID == "" {
		return nil, errors.New("user_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallRecord, 0)
	for _, r := range m.Records {
		if r.UserID != userID {
			continue
		}
		if !since.IsZero() && r.CreatedAt.Before(since) {
			continue
		}
		out = append(out, r)
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListRecentCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallRecord, len(m.Records))
	copy(out, m.Records)
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(recs []CallRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}

// MemoryDedup is an in-memory DedupGuard for tests.
type MemoryDedup struct {
	mu   sync.Mutex
	seen map[string]bool

	// Err, when set, simulates a guard outage.
	Err error
}

func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{seen: map[string]bool{}}
}

func (d *MemoryDedup) FirstDelivery(ctx context.Context, providerCallID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return false, d.Err
	}
	if d.seen[providerCallID] {
		return false, nil
	}
	d.seen[providerCallID] = true
	return true, nil
}
