package timesheet

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const draftKeyPrefix = "timesheet_draft"

// DraftStore keeps one in-progress weekly grid per account and week.
// Writes replace the previous draft; Get returns nil when none exists.
type DraftStore interface {
	Get(ctx context.Context, accountID string, weekStart time.Time) ([]DraftRow, error)
	Put(ctx context.Context, accountID string, weekStart time.Time, rows []DraftRow) error
	Delete(ctx context.Context, accountID string, weekStart time.Time) error
}

func DraftKey(accountID string, weekStart time.Time) string {
	return draftKeyPrefix + ":" + accountID + "_" + weekStart.Format(DateLayout)
}

// MemoryDraftStore holds drafts in process memory. Drafts are lost on restart.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string][]byte)}
}

func (m *MemoryDraftStore) Get(_ context.Context, accountID string, weekStart time.Time) ([]DraftRow, error) {
	m.mu.RLock()
	raw, ok := m.drafts[DraftKey(accountID, weekStart)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var rows []DraftRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *MemoryDraftStore) Put(_ context.Context, accountID string, weekStart time.Time, rows []DraftRow) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.drafts[DraftKey(accountID, weekStart)] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryDraftStore) Delete(_ context.Context, accountID string, weekStart time.Time) error {
	m.mu.Lock()
	delete(m.drafts, DraftKey(accountID, weekStart))
	m.mu.Unlock()
	return nil
}
