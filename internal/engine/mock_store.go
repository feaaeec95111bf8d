package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
)

// MockStore is an in-memory WidgetStore with injectable failures. Like the
// real stores it skips known IDs and refuses new widgets at the limit;
// QuotaOnInsert refuses every batch.
type MockStore struct {
	CountErr      error
	InsertErr     error
	ListErr       error
	DeactivateErr error
	widgets       map[string]model.Widget
	order         []string
	insertCalls   int
	countCalls    int
	QuotaOnInsert bool
	mu            sync.Mutex
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{widgets: make(map[string]model.Widget)}
}

// CountActiveWidgets implements service.WidgetCounter.
func (m *MockStore) CountActiveWidgets(_ context.Context, ownerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countCalls++
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return m.countLocked(ownerID), nil
}

func (m *MockStore) countLocked(ownerID string) int {
	n := 0
	for _, w := range m.widgets {
		if w.OwnerID == ownerID && w.Active {
			n++
		}
	}
	return n
}

// InsertWidgets implements service.WidgetStore.
func (m *MockStore) InsertWidgets(_ context.Context, widgets []model.Widget, limit int) ([]model.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.QuotaOnInsert {
		return nil, common.ErrQuotaExceeded
	}
	if m.InsertErr != nil {
		return nil, m.InsertErr
	}

	fresh := 0
	for _, w := range widgets {
		if _, ok := m.widgets[w.ID]; !ok {
			fresh++
		}
	}
	if fresh > 0 && limit != model.Unlimited && m.countLocked(widgets[0].OwnerID) >= limit {
		return nil, common.ErrQuotaExceeded
	}

	out := make([]model.Widget, 0, len(widgets))
	for _, w := range widgets {
		if existing, ok := m.widgets[w.ID]; ok {
			out = append(out, existing)
			continue
		}
		w.Active = true
		w.Position = len(m.order)
		m.widgets[w.ID] = w
		m.order = append(m.order, w.ID)
		out = append(out, w)
	}
	return out, nil
}

// DeactivateWidget implements service.WidgetStore.
func (m *MockStore) DeactivateWidget(_ context.Context, widgetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeactivateErr != nil {
		return m.DeactivateErr
	}
	w, ok := m.widgets[widgetID]
	if !ok {
		return common.ErrNotFound
	}
	w.Active = false
	m.widgets[widgetID] = w
	return nil
}

// GetActiveWidgets implements service.WidgetStore.
func (m *MockStore) GetActiveWidgets(_ context.Context, ownerID string) ([]model.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []model.Widget
	for _, id := range m.order {
		if w := m.widgets[id]; w.OwnerID == ownerID && w.Active {
			out = append(out, w)
		}
	}
	return out, nil
}

// Migrate implements service.WidgetStore.
func (m *MockStore) Migrate(_ context.Context) error { return nil }

// Close implements service.WidgetStore.
func (m *MockStore) Close() error { return nil }

// InsertCalls returns how many times InsertWidgets was called.
func (m *MockStore) InsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertCalls
}

// CountCalls returns how many times CountActiveWidgets was called.
func (m *MockStore) CountCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countCalls
}
