// AngelaMos | 2026
// fakes_test.go

package reflection

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
	mu          sync.Mutex
	clock       clockwork.Clock
	reflections map[string]Reflection
	reviews     map[string]WeeklyReview
}

func newMemRepo(clock clockwork.Clock) *memRepo {
	return &memRepo{
		clock:       clock,
		reflections: map[string]Reflection{},
		reviews:     map[string]WeeklyReview{},
	}
}

func (m *memRepo) WithTx(core.DBTX) Repository { return m }

func (m *memRepo) CreateReflection(_ context.Context, r *Reflection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reflections {
		if existing.UserID == r.UserID && existing.Date == r.Date {
			return fmt.Errorf("create reflection: %w", core.ErrDuplicateKey)
		}
	}
	r.CreatedAt = m.clock.Now().UTC()
	m.reflections[r.ID] = *r
	return nil
}

func (m *memRepo) ListReflections(
	_ context.Context,
	userID, from, to string,
) ([]Reflection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Reflection{}
	for _, r := range m.reflections {
		if r.UserID == userID && r.Date >= from && r.Date <= to {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *memRepo) CreateWeeklyReview(_ context.Context, w *WeeklyReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reviews {
		if existing.UserID == w.UserID && existing.WeekStart == w.WeekStart {
			return fmt.Errorf("create weekly review: %w", core.ErrDuplicateKey)
		}
	}
	w.CreatedAt = m.clock.Now().UTC()
	m.reviews[w.ID] = *w
	return nil
}

func (m *memRepo) ListWeeklyReviews(
	_ context.Context,
	userID string,
	limit int,
) ([]WeeklyReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []WeeklyReview{}
	for _, w := range m.reviews {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart > out[j].WeekStart })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memTx struct {
	repo *memRepo
	xp   *fakeGranter
}

func (t *memTx) InTx(_ context.Context, fn func(tx core.DBTX) error) error {
	t.repo.mu.Lock()
	refs, reviews := maps.Clone(t.repo.reflections), maps.Clone(t.repo.reviews)
	t.repo.mu.Unlock()
	grants := len(t.xp.grants)

	if err := fn(nil); err != nil {
		t.repo.mu.Lock()
		t.repo.reflections, t.repo.reviews = refs, reviews
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
	p := &gamification.Profile{UserID: userID}
	p.SetTotal(f.total())
	return p, nil
}

func (f *fakeGranter) total() int {
	total := 0
	for _, a := range f.grants {
		total += a.Amount
	}
	return total
}

// fixedScorer reports the same score for every day.
type fixedScorer struct {
	score int
	err   error
}

func (s fixedScorer) DailyScore(_ context.Context, _, date string) (string, int, error) {
	return date, s.score, s.err
}

func newTestService(score int) (*Service, *memRepo, *fakeGranter) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 12, 21, 0, 0, 0, time.UTC))
	repo := newMemRepo(clock)
	xp := &fakeGranter{}
	svc := NewService(repo, &memTx{repo: repo, xp: xp}, fixedScorer{score: score}, xp, clock, nil)
	return svc, repo, xp
}
