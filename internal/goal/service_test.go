// AngelaMos | 2026
// service_test.go

package goal

import (
	"context"
	"errors"
	"testing"

	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/gamification"
)

const (
	owner    = "11111111-1111-1111-1111-111111111111"
	stranger = "22222222-2222-2222-2222-222222222222"
)

func createGoal(t *testing.T, svc *Service, milestones ...string) *Goal {
	t.Helper()
	g, err := svc.Create(context.Background(), owner, CreateGoalRequest{
		Title:      "Run a marathon",
		Milestones: milestones,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return g
}

func TestProgress(t *testing.T) {
	tests := []struct {
		done, total int
		want        int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 4, 75},
		{4, 4, 100},
	}

	for _, tt := range tests {
		var ms []Milestone
		for i := range tt.total {
			status := MilestonePending
			if i < tt.done {
				status = MilestoneCompleted
			}
			ms = append(ms, Milestone{Status: status})
		}
		if got := Progress(ms); got != tt.want {
			t.Fatalf("Progress(%d/%d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestCompletingLastMilestoneCompletesGoal(t *testing.T) {
	svc, _, xp := newTestService()
	ctx := context.Background()
	g := createGoal(t, svc, "5k", "10k", "half", "full")

	if g.Status != StatusNotStarted || g.Progress != 0 {
		t.Fatalf("new goal = %s/%d, want not_started/0", g.Status, g.Progress)
	}

	for _, m := range g.Milestones[:3] {
		if _, _, err := svc.CompleteMilestone(ctx, owner, g.ID, m.ID); err != nil {
			t.Fatalf("complete %s: %v", m.Title, err)
		}
	}

	got, err := svc.Get(ctx, owner, g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Progress != 75 || got.Status != StatusInProgress {
		t.Fatalf("after 3 of 4 = %s/%d, want in_progress/75", got.Status, got.Progress)
	}

	got, earned, err := svc.CompleteMilestone(ctx, owner, g.ID, g.Milestones[3].ID)
	if err != nil {
		t.Fatalf("complete last: %v", err)
	}
	if got.Progress != 100 || got.Status != StatusCompleted {
		t.Fatalf("after 4 of 4 = %s/%d, want completed/100", got.Status, got.Progress)
	}
	if earned != gamification.XPMilestoneComplete {
		t.Fatalf("earned = %d, want %d", earned, gamification.XPMilestoneComplete)
	}
	if len(xp.grants) != 4 {
		t.Fatalf("grants = %d, want 4", len(xp.grants))
	}
	for _, a := range xp.grants {
		if a.Source != gamification.SourceMilestoneComplete || a.Amount != 50 {
			t.Fatalf("grant = %+v, want milestone_complete/50", a)
		}
	}
}

func TestMilestoneXPGrantedOnce(t *testing.T) {
	svc, _, xp := newTestService()
	ctx := context.Background()
	g := createGoal(t, svc, "only")
	id := g.Milestones[0].ID

	if _, _, err := svc.CompleteMilestone(ctx, owner, g.ID, id); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, earned, err := svc.CompleteMilestone(ctx, owner, g.ID, id)
	if err != nil {
		t.Fatalf("complete again: %v", err)
	}
	if earned != 0 {
		t.Fatalf("repeat complete earned = %d, want 0", earned)
	}

	reopened, err := svc.ReopenMilestone(ctx, owner, g.ID, id)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Progress != 0 || reopened.Status != StatusInProgress {
		t.Fatalf("reopened = %s/%d, want in_progress/0", reopened.Status, reopened.Progress)
	}

	_, earned, err = svc.CompleteMilestone(ctx, owner, g.ID, id)
	if err != nil {
		t.Fatalf("complete after reopen: %v", err)
	}
	if earned != 0 || len(xp.grants) != 1 {
		t.Fatalf("earned = %d, grants = %d, want 0 and 1", earned, len(xp.grants))
	}
}

func TestAddAndDeleteMilestoneRecompute(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	g := createGoal(t, svc, "a")

	if _, _, err := svc.CompleteMilestone(ctx, owner, g.ID, g.Milestones[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	added, err := svc.AddMilestone(ctx, owner, g.ID, "b")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.Progress != 50 || added.Status != StatusInProgress {
		t.Fatalf("after add = %s/%d, want in_progress/50", added.Status, added.Progress)
	}
	if last := added.Milestones[len(added.Milestones)-1]; last.Title != "b" || last.Order != 1 {
		t.Fatalf("added milestone = %+v, want b at order 1", last)
	}

	pending := added.Milestones[1].ID
	after, err := svc.DeleteMilestone(ctx, owner, g.ID, pending)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if after.Progress != 100 || after.Status != StatusCompleted {
		t.Fatalf("after delete = %s/%d, want completed/100", after.Status, after.Progress)
	}
}

func TestGrantFailureRollsBackMilestone(t *testing.T) {
	svc, repo, xp := newTestService()
	ctx := context.Background()
	g := createGoal(t, svc, "a")
	xp.failWith = errors.New("ledger down")

	if _, _, err := svc.CompleteMilestone(ctx, owner, g.ID, g.Milestones[0].ID); err == nil {
		t.Fatalf("complete succeeded, want error")
	}

	m, _ := repo.GetMilestone(ctx, g.ID, g.Milestones[0].ID)
	if m.Status != MilestonePending || m.XPAwarded {
		t.Fatalf("milestone = %+v, want pending without xp", m)
	}
}

func TestDeleteGoalCascades(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	g := createGoal(t, svc, "a", "b", "c")

	if err := svc.Delete(ctx, owner, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := repo.milestoneCount(g.ID); n != 0 {
		t.Fatalf("milestones after delete = %d, want 0", n)
	}
}

func TestGoalOwnership(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	g := createGoal(t, svc, "a")
	mid := g.Milestones[0].ID

	checks := map[string]error{}
	_, checks["get"] = svc.Get(ctx, stranger, g.ID)
	_, _, checks["complete"] = svc.CompleteMilestone(ctx, stranger, g.ID, mid)
	_, checks["reopen"] = svc.ReopenMilestone(ctx, stranger, g.ID, mid)
	_, checks["add"] = svc.AddMilestone(ctx, stranger, g.ID, "x")
	checks["delete"] = svc.Delete(ctx, stranger, g.ID)

	other := createGoal(t, svc, "b")
	_, _, checks["milestone of another goal"] = svc.CompleteMilestone(ctx, owner, other.ID, mid)

	for name, err := range checks {
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("%s err = %v, want ErrNotFound", name, err)
		}
	}
}

func TestCreateGoalValidation(t *testing.T) {
	svc, _, _ := newTestService()
	bad := "2025-02-30"

	_, err := svc.Create(context.Background(), owner, CreateGoalRequest{Title: "x", TargetDate: &bad})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	_, err = svc.Create(context.Background(), "", CreateGoalRequest{Title: "x"})
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	if _, err := svc.List(context.Background(), owner, "archived"); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("list err = %v, want ErrInvalidInput", err)
	}
}
