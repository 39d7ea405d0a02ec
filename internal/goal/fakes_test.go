// AngelaMos | 2026
// fakes_test.go

package goal

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/gamification"
)

type memRepo struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	goals      map[string]Goal
	milestones map[string]Milestone
}

func newMemRepo(clock clockwork.Clock) *memRepo {
	return &memRepo{
		clock:      clock,
		goals:      map[string]Goal{},
		milestones: map[string]Milestone{},
	}
}

func (m *memRepo) WithTx(core.DBTX) Repository { return m }

func (m *memRepo) Create(_ context.Context, g *Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.CreatedAt = m.clock.Now().UTC()
	g.UpdatedAt = g.CreatedAt
	stored := *g
	stored.Milestones = nil
	m.goals[g.ID] = stored
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, userID, id string) (*Goal, error) {
	return m.GetForUpdate(ctx, userID, id)
}

func (m *memRepo) GetForUpdate(_ context.Context, userID, id string) (*Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return nil, fmt.Errorf("get goal: %w", core.ErrNotFound)
	}
	return &g, nil
}

func (m *memRepo) Update(_ context.Context, g *Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *g
	stored.Milestones = nil
	m.goals[g.ID] = stored
	return nil
}

func (m *memRepo) SaveProgress(ctx context.Context, g *Goal) error {
	return m.Update(ctx, g)
}

func (m *memRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return core.ErrNotFound
	}
	delete(m.goals, id)
	return nil
}

func (m *memRepo) List(_ context.Context, userID, status string) ([]Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Goal{}
	for _, g := range m.goals {
		if g.UserID == userID && (status == "" || g.Status == status) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memRepo) CreateMilestone(_ context.Context, ms *Milestone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms.CreatedAt = m.clock.Now().UTC()
	m.milestones[ms.ID] = *ms
	return nil
}

func (m *memRepo) GetMilestone(_ context.Context, goalID, id string) (*Milestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.milestones[id]
	if !ok || ms.GoalID != goalID {
		return nil, fmt.Errorf("get milestone: %w", core.ErrNotFound)
	}
	return &ms, nil
}

func (m *memRepo) UpdateMilestone(_ context.Context, ms *Milestone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.milestones[ms.ID] = *ms
	return nil
}

func (m *memRepo) DeleteMilestone(_ context.Context, goalID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.milestones[id]
	if !ok || ms.GoalID != goalID {
		return fmt.Errorf("delete milestone: %w", core.ErrNotFound)
	}
	delete(m.milestones, id)
	return nil
}

func (m *memRepo) DeleteMilestones(_ context.Context, goalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ms := range m.milestones {
		if ms.GoalID == goalID {
			delete(m.milestones, id)
		}
	}
	return nil
}

func (m *memRepo) ListMilestones(_ context.Context, goalID string) ([]Milestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Milestone{}
	for _, ms := range m.milestones {
		if ms.GoalID == goalID {
			out = append(out, ms)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *memRepo) milestoneCount(goalID string) int {
	ms, _ := m.ListMilestones(context.Background(), goalID)
	return len(ms)
}

// memTx rolls the store back when fn fails.
type memTx struct {
	repo *memRepo
	xp   *fakeGranter
}

func (t *memTx) InTx(_ context.Context, fn func(tx core.DBTX) error) error {
	t.repo.mu.Lock()
	goals, milestones := maps.Clone(t.repo.goals), maps.Clone(t.repo.milestones)
	t.repo.mu.Unlock()
	grants := len(t.xp.grants)

	if err := fn(nil); err != nil {
		t.repo.mu.Lock()
		t.repo.goals, t.repo.milestones = goals, milestones
		t.repo.mu.Unlock()
		t.xp.grants = t.xp.grants[:grants]
		return err
	}
	return nil
}

type fakeGranter struct {
	grants   []gamification.Award
	failWith error
}

func (f *fakeGranter) Grant(
	_ context.Context,
	_ core.DBTX,
	userID string,
	award gamification.Award,
) (*gamification.Profile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.grants = append(f.grants, award)

	total := 0
	for _, a := range f.grants {
		total += a.Amount
	}
	p := &gamification.Profile{UserID: userID}
	p.SetTotal(total)
	return p, nil
}

func newTestService() (*Service, *memRepo, *fakeGranter) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	repo := newMemRepo(clock)
	xp := &fakeGranter{}
	return NewService(repo, &memTx{repo: repo, xp: xp}, xp, clock, nil), repo, xp
}
