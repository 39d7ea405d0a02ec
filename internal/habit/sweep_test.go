// AngelaMos | 2026
// sweep_test.go

package habit

import (
	"context"
	"testing"
	"time"

	"github.com/carterperez-dev/habit-ledger/internal/user"
)

func TestSweepMarksYesterdayFailed(t *testing.T) {
	f := newFixture(nil)
	f.repo.addOwner(Owner{ID: userA, Plan: user.PlanFree, Timezone: "UTC"})
	f.seedHabit("streaking", userA, 3)
	f.seedHabit("idle", userA, 0)
	f.seedHabit("logged", userA, 2)

	weekly := f.repo.habit("idle")
	weekly.ID = "weekly"
	weekly.Frequency = FrequencyWeekly
	f.repo.putHabit(weekly)

	fresh := f.repo.habit("idle")
	fresh.ID = "fresh"
	fresh.CreatedAt = fixtureNow
	f.repo.putHabit(fresh)

	ctx := context.Background()
	if _, err := f.svc.ToggleComplete(ctx, userA, "logged", ToggleRequest{Date: "2025-01-09"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	res, err := f.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if res.Users != 1 || res.FailedLogs != 2 || res.StreaksReset != 1 || res.Errors != 0 {
		t.Fatalf("result = %+v, want 1 user, 2 failed logs, 1 reset", res)
	}

	for _, id := range []string{"streaking", "idle"} {
		l, ok := f.repo.logFor(id, "2025-01-09")
		if !ok || l.Status != StatusFailed {
			t.Fatalf("%s log = %+v (found %v), want failed", id, l, ok)
		}
	}
	for _, id := range []string{"weekly", "fresh"} {
		if _, ok := f.repo.logFor(id, "2025-01-09"); ok {
			t.Fatalf("%s got a failed log, want none", id)
		}
	}

	h := f.repo.habit("streaking")
	if h.StreakCurrent != 0 || h.StreakLongest != 3 {
		t.Fatalf("streaking = %d/%d, want 0/3", h.StreakCurrent, h.StreakLongest)
	}
	if h := f.repo.habit("logged"); h.StreakCurrent != 3 {
		t.Fatalf("logged streak = %d, want 3", h.StreakCurrent)
	}

	again, err := f.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if again.FailedLogs != 0 || again.StreaksReset != 0 {
		t.Fatalf("second sweep = %+v, want no changes", again)
	}
}

func TestSweepConsumesStreakFreezes(t *testing.T) {
	f := newFixture(nil)
	f.repo.addOwner(Owner{ID: userA, Plan: user.PlanPro, Timezone: "UTC", StreakFreezes: 1})
	f.seedHabit("first", userA, 5)
	f.seedHabit("second", userA, 8)

	res, err := f.svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if res.FreezesUsed != 1 || res.StreaksReset != 1 {
		t.Fatalf("result = %+v, want 1 freeze used and 1 reset", res)
	}
	if o := f.repo.owner(userA); o.StreakFreezes != 0 {
		t.Fatalf("StreakFreezes = %d, want 0", o.StreakFreezes)
	}

	kept := 0
	for _, id := range []string{"first", "second"} {
		h := f.repo.habit(id)
		if h.StreakCurrent > 0 {
			kept++
		}
		if h.StreakLongest < h.StreakCurrent {
			t.Fatalf("%s longest %d < current %d", id, h.StreakLongest, h.StreakCurrent)
		}
	}
	if kept != 1 {
		t.Fatalf("habits keeping their streak = %d, want 1", kept)
	}
}

func TestSweepUsesOwnerTimezone(t *testing.T) {
	if _, err := time.LoadLocation("Pacific/Auckland"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	f := newFixture(nil)
	f.repo.addOwner(Owner{ID: userA, Plan: user.PlanFree, Timezone: "Pacific/Auckland"})
	f.repo.addOwner(Owner{ID: userB, Plan: user.PlanFree, Timezone: "UTC"})
	f.seedHabit("nz", userA, 0)
	f.seedHabit("utc", userB, 0)

	f.clock.Advance(11 * time.Hour)

	res, err := f.svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Users != 2 {
		t.Fatalf("Users = %d, want 2", res.Users)
	}

	if _, ok := f.repo.logFor("nz", "2025-01-10"); !ok {
		t.Fatalf("nz habit has no failed log for 2025-01-10")
	}
	if _, ok := f.repo.logFor("utc", "2025-01-09"); !ok {
		t.Fatalf("utc habit has no failed log for 2025-01-09")
	}
}

func TestSweepCountsFailingUsers(t *testing.T) {
	f := newFixture(nil)
	f.repo.addOwner(Owner{ID: userA, Plan: user.PlanFree, Timezone: "UTC"})
	f.seedHabit("ok", userA, 0)
	f.seedHabit("orphan", userB, 0)

	res, err := f.svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Users != 1 || res.Errors != 1 {
		t.Fatalf("result = %+v, want 1 user and 1 error", res)
	}
}
