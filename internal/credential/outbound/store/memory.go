package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shandysiswandi/otpgate/internal/credential/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type memoryItem struct {
	cred      entity.Credential
	expiresAt time.Time
}

// Memory is the in-process backend. A single mutex covers each whole
// operation, which makes VerifyAndConsume atomic.
type Memory struct {
	mu    sync.Mutex
	items map[string]*memoryItem
	clock clock.Clocker
}

// NewMemory builds an empty Memory store reading time from clk.
func NewMemory(clk clock.Clocker) *Memory {
	return &Memory{
		items: make(map[string]*memoryItem),
		clock: clk,
	}
}

func (m *Memory) Create(_ context.Context, c entity.NewCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[c.ID] = &memoryItem{cred: c.Credential(), expiresAt: c.ExpiresAt()}
	return nil
}

// live returns the item for id, dropping it when expired. Callers hold mu.
func (m *Memory) live(id string, now time.Time) (item *memoryItem, found, expired bool) {
	item, found = m.items[id]
	if !found {
		return nil, false, false
	}
	if !now.Before(item.expiresAt) {
		delete(m.items, id)
		return nil, true, true
	}
	return item, true, false
}

func (m *Memory) GetMeta(_ context.Context, id string) (*entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, _, _ := m.live(id, m.clock.Now())
	if item == nil {
		return nil, goerror.ErrNotFound
	}

	cred := item.cred
	return &cred, nil
}

func (m *Memory) VerifyAndConsume(_ context.Context, id, digest string) (entity.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	item, found, expired := m.live(id, now)
	switch {
	case !found:
		return entity.OutcomeNotFound, nil
	case expired:
		return entity.OutcomeExpired, nil
	case item.cred.Used:
		return entity.OutcomeUsed, nil
	case !digestEqual(item.cred.HMAC, digest):
		return entity.OutcomeInvalid, nil
	}

	item.cred.Used = true
	item.cred.UsedAt = now.Unix()
	return entity.OutcomeOK, nil
}

func (m *Memory) ListActive(_ context.Context, f entity.ListFilter) ([]entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	out := make([]entity.Credential, 0)
	for id := range m.items {
		item, _, _ := m.live(id, now)
		if item == nil || !f.Match(item.cred) {
			continue
		}
		out = append(out, item.cred)
	}

	sortNewestFirst(out)
	return limit(out, f.Limit), nil
}

func (m *Memory) PurgeIndex(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	removed := 0
	for id := range m.items {
		if _, _, expired := m.live(id, now); expired {
			removed++
		}
	}
	return removed, nil
}

// Len reports how many records are held, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func sortNewestFirst(creds []entity.Credential) {
	slices.SortFunc(creds, func(a, b entity.Credential) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func limit(creds []entity.Credential, n int) []entity.Credential {
	if n > 0 && len(creds) > n {
		return creds[:n]
	}
	return creds
}
