// AngelaMos | 2026
// fakes_test.go

package habit

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/gamification"
)

// memRepo is an in-memory Repository. Rows are stored by value so
// callers never alias stored state.
type memRepo struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	habits map[string]Habit
	logs   map[string]Log
	owners map[string]Owner
}

func newMemRepo(clock clockwork.Clock) *memRepo {
	return &memRepo{
		clock:  clock,
		habits: map[string]Habit{},
		logs:   map[string]Log{},
		owners: map[string]Owner{},
	}
}

type memSnapshot struct {
	habits map[string]Habit
	logs   map[string]Log
	owners map[string]Owner
}

func (m *memRepo) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		habits: maps.Clone(m.habits),
		logs:   maps.Clone(m.logs),
		owners: maps.Clone(m.owners),
	}
}

func (m *memRepo) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits, m.logs, m.owners = s.habits, s.logs, s.owners
}

func (m *memRepo) WithTx(core.DBTX) Repository { return m }

func (m *memRepo) addOwner(o Owner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[o.ID] = o
}

func (m *memRepo) owner(id string) Owner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owners[id]
}

func (m *memRepo) habit(id string) Habit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.habits[id]
}

func (m *memRepo) putHabit(h Habit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.habits[h.ID] = h
}

func (m *memRepo) logFor(habitID, date string) (Log, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.HabitID == habitID && l.Date == date {
			return l, true
		}
	}
	return Log{}, false
}

func (m *memRepo) logCount(habitID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.logs {
		if l.HabitID == habitID {
			n++
		}
	}
	return n
}

func (m *memRepo) Create(_ context.Context, h *Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now().UTC()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	m.habits[h.ID] = *h
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, userID, id string) (*Habit, error) {
	return m.GetForUpdate(ctx, userID, id)
}

func (m *memRepo) GetForUpdate(_ context.Context, userID, id string) (*Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok || h.UserID != userID {
		return nil, fmt.Errorf("get habit: %w", core.ErrNotFound)
	}
	return &h, nil
}

func (m *memRepo) Update(_ context.Context, h *Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.habits[h.ID]; !ok {
		return core.ErrNotFound
	}
	h.UpdatedAt = m.clock.Now().UTC()
	m.habits[h.ID] = *h
	return nil
}

func (m *memRepo) UpdateStreak(_ context.Context, h *Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.habits[h.ID]
	if !ok {
		return core.ErrNotFound
	}
	stored.StreakCurrent = h.StreakCurrent
	stored.StreakLongest = h.StreakLongest
	m.habits[h.ID] = stored
	return nil
}

func (m *memRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok || h.UserID != userID {
		return core.ErrNotFound
	}
	delete(m.habits, id)
	return nil
}

func (m *memRepo) ListByUser(_ context.Context, userID string, activeOnly bool) ([]Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Habit{}
	for _, h := range m.habits {
		if h.UserID != userID || (activeOnly && !h.IsActive) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memRepo) ListActiveForUpdate(ctx context.Context, userID string) ([]Habit, error) {
	return m.ListByUser(ctx, userID, true)
}

func (m *memRepo) CountActive(ctx context.Context, userID string) (int, error) {
	habits, err := m.ListByUser(ctx, userID, true)
	return len(habits), err
}

func (m *memRepo) SetOrder(_ context.Context, userID, id string, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok || h.UserID != userID {
		return fmt.Errorf("set habit order: %w", core.ErrNotFound)
	}
	h.Order = order
	m.habits[id] = h
	return nil
}

func (m *memRepo) GetLog(_ context.Context, habitID, date string) (*Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.HabitID == habitID && l.Date == date {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("get habit log: %w", core.ErrNotFound)
}

func (m *memRepo) InsertLog(_ context.Context, l *Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.logs {
		if existing.HabitID == l.HabitID && existing.Date == l.Date {
			return fmt.Errorf("insert habit log: %w", core.ErrDuplicateKey)
		}
	}
	l.CreatedAt = m.clock.Now().UTC()
	l.UpdatedAt = l.CreatedAt
	m.logs[l.ID] = *l
	return nil
}

func (m *memRepo) UpdateLog(_ context.Context, l *Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[l.ID]; !ok {
		return core.ErrNotFound
	}
	m.logs[l.ID] = *l
	return nil
}

func (m *memRepo) DeleteLog(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logs, id)
	return nil
}

func (m *memRepo) DeleteLogs(_ context.Context, habitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.logs {
		if l.HabitID == habitID {
			delete(m.logs, id)
		}
	}
	return nil
}

func (m *memRepo) InsertFailedLog(ctx context.Context, l *Log) (bool, error) {
	l.Status = StatusFailed
	err := m.InsertLog(ctx, l)
	if errors.Is(err, core.ErrDuplicateKey) {
		return false, nil
	}
	return err == nil, err
}

func (m *memRepo) ListLogs(_ context.Context, habitID string) ([]Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Log{}
	for _, l := range m.logs {
		if l.HabitID == habitID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memRepo) ListLogsInRange(_ context.Context, userID, from, to, habitID string) ([]Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Log{}
	for _, l := range m.logs {
		if l.UserID != userID || l.Date < from || l.Date > to {
			continue
		}
		if habitID != "" && l.HabitID != habitID {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memRepo) GetOwner(_ context.Context, userID string, _ bool) (*Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[userID]
	if !ok {
		return nil, fmt.Errorf("get owner: %w", core.ErrNotFound)
	}
	return &o, nil
}

func (m *memRepo) ConsumeStreakFreeze(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[userID]
	if !ok || o.StreakFreezes == 0 {
		return core.ErrNotFound
	}
	o.StreakFreezes--
	m.owners[userID] = o
	return nil
}

func (m *memRepo) ListOwnersWithActiveHabits(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, h := range m.habits {
		if h.IsActive && !slices.Contains(ids, h.UserID) {
			ids = append(ids, h.UserID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *memRepo) Counts(context.Context) (*Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &Counts{Habits: len(m.habits), Logs: len(m.logs)}
	for _, h := range m.habits {
		if h.IsActive {
			c.Active++
		}
	}
	for _, l := range m.logs {
		switch l.Status {
		case StatusCompleted:
			c.Completed++
		case StatusSkipped:
			c.Skipped++
		case StatusFailed:
			c.Failed++
		}
	}
	return c, nil
}

// memTx serializes transactions and rolls the store back when fn fails.
type memTx struct {
	mu   sync.Mutex
	repo *memRepo
	xp   *fakeXP
}

func (t *memTx) InTx(_ context.Context, fn func(tx core.DBTX) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.repo.snapshot()
	xpSnap := t.xp.snapshot()

	if err := fn(nil); err != nil {
		t.repo.restore(snap)
		t.xp.restore(xpSnap)
		return err
	}
	return nil
}

type fakeXP struct {
	mu           sync.Mutex
	totals       map[string]int
	achievements map[string][]string
	calls        int
	failWith     error
}

func newFakeXP() *fakeXP {
	return &fakeXP{totals: map[string]int{}, achievements: map[string][]string{}}
}

type xpSnapshot struct {
	totals       map[string]int
	achievements map[string][]string
}

func (f *fakeXP) snapshot() xpSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return xpSnapshot{totals: maps.Clone(f.totals), achievements: maps.Clone(f.achievements)}
}

func (f *fakeXP) restore(s xpSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals, f.achievements = s.totals, s.achievements
}

func (f *fakeXP) ApplyHabitXP(
	_ context.Context,
	_ core.DBTX,
	userID string,
	delta int,
) (*gamification.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failWith != nil {
		return nil, f.failWith
	}

	p := &gamification.Profile{UserID: userID, TotalXP: f.totals[userID]}
	p.SetTotal(p.TotalXP + delta)
	f.totals[userID] = p.TotalXP
	return p, nil
}

func (f *fakeXP) UnlockStreakAchievement(
	_ context.Context,
	_ core.DBTX,
	userID string,
	streak int,
) error {
	name, ok := gamification.StreakAchievement(streak)
	if !ok {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.Contains(f.achievements[userID], name) {
		f.achievements[userID] = append(f.achievements[userID], name)
	}
	return nil
}

func (f *fakeXP) total(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals[userID]
}

type fixture struct {
	svc   *Service
	repo  *memRepo
	xp    *fakeXP
	clock *clockwork.FakeClock
}

var fixtureNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func newFixture(mutate func(*ServiceConfig)) *fixture {
	clock := clockwork.NewFakeClockAt(fixtureNow)
	repo := newMemRepo(clock)
	xp := newFakeXP()

	cfg := ServiceConfig{
		Repo:                     repo,
		Transactor:               &memTx{repo: repo, xp: xp},
		XP:                       xp,
		Clock:                    clock,
		FreeLimit:                5,
		PersistUncompletePenalty: true,
		MaxRangeDays:             366,
		SweepConcurrency:         2,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	return &fixture{svc: NewService(cfg), repo: repo, xp: xp, clock: clock}
}

const (
	userA = "11111111-1111-1111-1111-111111111111"
	userB = "22222222-2222-2222-2222-222222222222"
)

// seedHabit stores an active daily habit owned by userID, created well
// before the fixture clock.
func (f *fixture) seedHabit(id, userID string, streak int) {
	f.repo.putHabit(Habit{
		ID:            id,
		UserID:        userID,
		Title:         "Read",
		Frequency:     FrequencyDaily,
		CustomDays:    Weekdays{},
		TimeOfDay:     TimeAnytime,
		IsActive:      true,
		StreakCurrent: streak,
		StreakLongest: streak,
		CreatedAt:     fixtureNow.AddDate(0, -1, 0),
	})
}
