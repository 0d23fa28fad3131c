package fraud

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemStore implements Store in memory. It backs "console --agent fraud --mem"
// rehearsals and tests.
type MemStore struct {
	mu     sync.Mutex
	cases  []Case
	nextID int64
}

// NewMemStore returns a store holding copies of cases with ids assigned in order.
func NewMemStore(cases ...Case) *MemStore {
	m := &MemStore{nextID: 1}
	for _, c := range cases {
		if c.Status == "" {
			c.Status = StatusPendingReview
		}
		c.ID = m.nextID
		m.nextID++
		m.cases = append(m.cases, c)
	}
	return m
}

func (m *MemStore) FindPending(ctx context.Context, userName string) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cases {
		if strings.EqualFold(c.UserName, userName) && c.Status == StatusPendingReview {
			out := c
			return &out, nil
		}
	}
	return nil, ErrCaseNotFound
}

func (m *MemStore) Resolve(ctx context.Context, id int64, status Status, note string) error {
	if !CanTransition(StatusPendingReview, status) {
		return fmt.Errorf("resolve case %d: %q is not a terminal status", id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cases {
		if m.cases[i].ID != id {
			continue
		}
		if !CanTransition(m.cases[i].Status, status) {
			return fmt.Errorf("case %d is %s: %w", id, m.cases[i].Status, ErrCaseClosed)
		}
		m.cases[i].Status = status
		m.cases[i].OutcomeNote = note
		return nil
	}
	return ErrCaseNotFound
}

func (m *MemStore) Get(ctx context.Context, id int64) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cases {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, ErrCaseNotFound
}

func (m *MemStore) List(ctx context.Context) ([]Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Case, len(m.cases))
	copy(out, m.cases)
	return out, nil
}
