// AngelaMos | 2026
// fakes_test.go

package gamification

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

type memRepo struct {
	mu       sync.Mutex
	profiles map[string]Profile
	history  []XPEntry
}

func newMemRepo() *memRepo {
	return &memRepo{profiles: map[string]Profile{}}
}

func (m *memRepo) WithTx(core.DBTX) Repository { return m }

func (m *memRepo) EnsureProfile(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; !ok {
		m.profiles[userID] = Profile{
			UserID:       userID,
			Level:        1,
			Achievements: StringList{},
			Badges:       StringList{},
		}
	}
	return nil
}

func (m *memRepo) GetProfile(_ context.Context, userID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	p.Achievements = slices.Clone(p.Achievements)
	p.Badges = slices.Clone(p.Badges)
	return &p, nil
}

func (m *memRepo) GetProfileForUpdate(ctx context.Context, userID string) (*Profile, error) {
	return m.GetProfile(ctx, userID)
}

func (m *memRepo) SaveProfile(_ context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = *p
	return nil
}

func (m *memRepo) AppendHistory(_ context.Context, entry *XPEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, *entry)
	return nil
}

func (m *memRepo) ListHistory(
	_ context.Context,
	userID string,
	limit, offset int,
) ([]XPEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine []XPEntry
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].UserID == userID {
			mine = append(mine, m.history[i])
		}
	}
	total := len(mine)
	if offset >= total {
		return []XPEntry{}, total, nil
	}
	end := min(offset+limit, total)
	return mine[offset:end], total, nil
}

func (m *memRepo) Totals(context.Context) (*LedgerTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &LedgerTotals{Profiles: len(m.profiles), HistoryCount: len(m.history)}
	for _, p := range m.profiles {
		t.TotalXP += p.TotalXP
		t.MaxLevel = max(t.MaxLevel, p.Level)
	}
	return t, nil
}

type passTx struct{}

func (passTx) InTx(_ context.Context, fn func(tx core.DBTX) error) error {
	return fn(nil)
}

func newTestService() (*Service, *memRepo, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC))
	repo := newMemRepo()
	return NewService(repo, passTx{}, clock, nil), repo, clock
}
