// AngelaMos | 2026
// service.go

package habit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/gamification"
	"github.com/carterperez-dev/habit-ledger/internal/user"
)

// XPLedger is the slice of the gamification ledger the toggle path
// writes to. Both calls join the caller's transaction.
type XPLedger interface {
	ApplyHabitXP(
		ctx context.Context,
		tx core.DBTX,
		userID string,
		delta int,
	) (*gamification.Profile, error)
	UnlockStreakAchievement(
		ctx context.Context,
		tx core.DBTX,
		userID string,
		streak int,
	) error
}

// QuotaError is returned when a plan's active habit limit is reached.
type QuotaError struct {
	Plan  string
	Limit int
}

func (e *QuotaError) Error() string {
	return e.QuotaMessage()
}

func (e *QuotaError) QuotaMessage() string {
	return fmt.Sprintf(
		"habit limit reached: %s plan allows %d active habits",
		e.Plan,
		e.Limit,
	)
}

func (e *QuotaError) Unwrap() error {
	return core.ErrQuotaExceeded
}

type ServiceConfig struct {
	Repo       Repository
	Transactor core.Transactor
	XP         XPLedger
	Clock      clockwork.Clock
	Logger     *slog.Logger

	FreeLimit                int
	NeverMissTwice           bool
	PersistUncompletePenalty bool
	MaxRangeDays             int
	SweepConcurrency         int
}

type Service struct {
	repo   Repository
	tx     core.Transactor
	xp     XPLedger
	clock  clockwork.Clock
	logger *slog.Logger

	freeLimit        int
	neverMissTwice   bool
	persistPenalty   bool
	maxRangeDays     int
	sweepConcurrency int
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FreeLimit < 1 {
		cfg.FreeLimit = 5
	}
	if cfg.MaxRangeDays < 1 {
		cfg.MaxRangeDays = 366
	}
	if cfg.SweepConcurrency < 1 {
		cfg.SweepConcurrency = 4
	}

	return &Service{
		repo:             cfg.Repo,
		tx:               cfg.Transactor,
		xp:               cfg.XP,
		clock:            cfg.Clock,
		logger:           cfg.Logger,
		freeLimit:        cfg.FreeLimit,
		neverMissTwice:   cfg.NeverMissTwice,
		persistPenalty:   cfg.PersistUncompletePenalty,
		maxRangeDays:     cfg.MaxRangeDays,
		sweepConcurrency: cfg.SweepConcurrency,
	}
}

func (s *Service) inTx(ctx context.Context, fn func(tx core.DBTX, repo Repository) error) error {
	return s.tx.InTx(ctx, func(tx core.DBTX) error {
		return fn(tx, s.repo.WithTx(tx))
	})
}

// checkQuota fails when one more active habit would exceed the plan's
// limit. Unknown plans get the free limit.
func (s *Service) checkQuota(plan string, active int) error {
	switch plan {
	case user.PlanPro, user.PlanLifetime:
		return nil
	}

	if active >= s.freeLimit {
		return &QuotaError{Plan: user.PlanFree, Limit: s.freeLimit}
	}
	return nil
}

func (s *Service) ListActive(ctx context.Context, userID string) ([]Habit, error) {
	return s.list(ctx, userID, true)
}

func (s *Service) ListAll(ctx context.Context, userID string) ([]Habit, error) {
	return s.list(ctx, userID, false)
}

func (s *Service) list(
	ctx context.Context,
	userID string,
	activeOnly bool,
) ([]Habit, error) {
	if userID == "" {
		return nil, fmt.Errorf("list habits: %w", core.ErrUnauthorized)
	}
	return s.repo.ListByUser(ctx, userID, activeOnly)
}

func (s *Service) Get(ctx context.Context, userID, habitID string) (*Habit, error) {
	if userID == "" {
		return nil, fmt.Errorf("get habit: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, userID, habitID)
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateHabitRequest,
) (*Habit, error) {
	if userID == "" {
		return nil, fmt.Errorf("create habit: %w", core.ErrUnauthorized)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", core.ErrInvalidInput)
	}

	days, err := normalizeSchedule(req.Frequency, req.CustomDays)
	if err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	timeOfDay := req.TimeOfDay
	if timeOfDay == "" {
		timeOfDay = TimeAnytime
	}
	if !validTimeOfDay(timeOfDay) {
		return nil, fmt.Errorf("unknown time of day %q: %w", timeOfDay, core.ErrInvalidInput)
	}

	ctx, span := core.StartSpan(ctx, "habit.create")

	var habit *Habit
	err = s.inTx(ctx, func(_ core.DBTX, repo Repository) error {
		owner, err := repo.GetOwner(ctx, userID, true)
		if err != nil {
			return err
		}

		active, err := repo.CountActive(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.checkQuota(owner.Plan, active); err != nil {
			return err
		}

		h := &Habit{
			ID:          uuid.New().String(),
			UserID:      userID,
			Title:       title,
			Description: strings.TrimSpace(req.Description),
			Category:    strings.TrimSpace(req.Category),
			Frequency:   req.Frequency,
			CustomDays:  days,
			TimeOfDay:   timeOfDay,
			IsActive:    true,
			Order:       active,
		}
		if err := repo.Create(ctx, h); err != nil {
			return err
		}

		habit = h
		return nil
	})
	core.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	s.logger.Debug("habit created",
		"user_id", userID,
		"habit_id", habit.ID,
		"frequency", habit.Frequency,
	)

	return habit, nil
}

func (s *Service) Update(
	ctx context.Context,
	userID, habitID string,
	req UpdateHabitRequest,
) (*Habit, error) {
	if userID == "" {
		return nil, fmt.Errorf("update habit: %w", core.ErrUnauthorized)
	}

	activating := req.IsActive != nil && *req.IsActive

	var habit *Habit
	err := s.inTx(ctx, func(_ core.DBTX, repo Repository) error {
		var owner *Owner
		if activating {
			o, err := repo.GetOwner(ctx, userID, true)
			if err != nil {
				return err
			}
			owner = o
		}

		h, err := repo.GetForUpdate(ctx, userID, habitID)
		if err != nil {
			return err
		}

		if err := applyPatch(h, req); err != nil {
			return err
		}

		if activating && !h.IsActive {
			active, err := repo.CountActive(ctx, userID)
			if err != nil {
				return err
			}
			if err := s.checkQuota(owner.Plan, active); err != nil {
				return err
			}
		}
		if req.IsActive != nil {
			h.IsActive = *req.IsActive
		}

		if err := repo.Update(ctx, h); err != nil {
			return err
		}

		habit = h
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}

	return habit, nil
}

func applyPatch(h *Habit, req UpdateHabitRequest) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return fmt.Errorf("title is required: %w", core.ErrInvalidInput)
		}
		h.Title = title
	}
	if req.Description != nil {
		h.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		h.Category = strings.TrimSpace(*req.Category)
	}
	if req.TimeOfDay != nil {
		if !validTimeOfDay(*req.TimeOfDay) {
			return fmt.Errorf("unknown time of day %q: %w", *req.TimeOfDay, core.ErrInvalidInput)
		}
		h.TimeOfDay = *req.TimeOfDay
	}

	if req.Frequency != nil || req.CustomDays != nil {
		frequency := h.Frequency
		if req.Frequency != nil {
			frequency = *req.Frequency
		}
		days := []int(h.CustomDays)
		if req.CustomDays != nil {
			days = *req.CustomDays
		}

		normalized, err := normalizeSchedule(frequency, days)
		if err != nil {
			return err
		}
		h.Frequency = frequency
		h.CustomDays = normalized
	}

	return nil
}

// Remove deletes the habit and every log it owns.
func (s *Service) Remove(ctx context.Context, userID, habitID string) error {
	if userID == "" {
		return fmt.Errorf("remove habit: %w", core.ErrUnauthorized)
	}

	err := s.inTx(ctx, func(_ core.DBTX, repo Repository) error {
		h, err := repo.GetForUpdate(ctx, userID, habitID)
		if err != nil {
			return err
		}
		if err := repo.DeleteLogs(ctx, h.ID); err != nil {
			return err
		}
		return repo.Delete(ctx, userID, h.ID)
	})
	if err != nil {
		return fmt.Errorf("remove habit: %w", err)
	}

	s.logger.Debug("habit removed", "user_id", userID, "habit_id", habitID)

	return nil
}

// ToggleComplete flips the day between completed and not completed. A
// skipped or failed day becomes completed.
func (s *Service) ToggleComplete(
	ctx context.Context,
	userID, habitID string,
	req ToggleRequest,
) (*ToggleResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("toggle habit: %w", core.ErrUnauthorized)
	}
	if _, err := core.ParseDate(req.Date); err != nil {
		return nil, fmt.Errorf("toggle habit: %w", err)
	}

	ctx, span := core.StartSpan(ctx, "habit.toggle",
		attribute.String("habit.id", habitID),
		attribute.String("habit.date", req.Date),
	)

	var result *ToggleResult
	err := s.inTx(ctx, func(tx core.DBTX, repo Repository) error {
		h, err := repo.GetForUpdate(ctx, userID, habitID)
		if err != nil {
			return err
		}

		existing, err := repo.GetLog(ctx, h.ID, req.Date)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return err
		}

		if existing != nil && existing.Status == StatusCompleted {
			result, err = s.uncomplete(ctx, tx, repo, h, existing)
			return err
		}

		result, err = s.complete(ctx, tx, repo, h, existing, req)
		return err
	})
	core.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("toggle habit: %w", err)
	}

	s.logger.Debug("habit toggled",
		"user_id", userID,
		"habit_id", habitID,
		"date", req.Date,
		"action", result.Action,
		"xp_change", result.XPChange,
	)

	return result, nil
}

func (s *Service) complete(
	ctx context.Context,
	tx core.DBTX,
	repo Repository,
	h *Habit,
	existing *Log,
	req ToggleRequest,
) (*ToggleResult, error) {
	now := s.clock.Now().UTC()

	if existing == nil {
		l := &Log{
			ID:          uuid.New().String(),
			HabitID:     h.ID,
			UserID:      h.UserID,
			Date:        req.Date,
			Status:      StatusCompleted,
			Mood:        req.Mood,
			Note:        req.Note,
			CompletedAt: &now,
		}
		if err := repo.InsertLog(ctx, l); err != nil {
			return nil, err
		}
	} else {
		existing.Status = StatusCompleted
		existing.CompletedAt = &now
		if req.Mood != nil {
			existing.Mood = req.Mood
		}
		if req.Note != nil {
			existing.Note = req.Note
		}
		if err := repo.UpdateLog(ctx, existing); err != nil {
			return nil, err
		}
	}

	xp := h.Complete()
	if err := repo.UpdateStreak(ctx, h); err != nil {
		return nil, err
	}

	if _, err := s.xp.ApplyHabitXP(ctx, tx, h.UserID, xp); err != nil {
		return nil, err
	}
	if err := s.xp.UnlockStreakAchievement(ctx, tx, h.UserID, h.StreakCurrent); err != nil {
		return nil, err
	}

	streak := h.StreakCurrent
	return &ToggleResult{
		Action:   ActionCompleted,
		XPChange: xp,
		Streak:   &streak,
	}, nil
}

func (s *Service) uncomplete(
	ctx context.Context,
	tx core.DBTX,
	repo Repository,
	h *Habit,
	existing *Log,
) (*ToggleResult, error) {
	if err := repo.DeleteLog(ctx, existing.ID); err != nil {
		return nil, err
	}

	h.Uncomplete()
	if err := repo.UpdateStreak(ctx, h); err != nil {
		return nil, err
	}

	if s.persistPenalty {
		if _, err := s.xp.ApplyHabitXP(ctx, tx, h.UserID, UncompleteXP); err != nil {
			return nil, err
		}
	}

	return &ToggleResult{
		Action:   ActionUncompleted,
		XPChange: UncompleteXP,
	}, nil
}

// Skip marks the day skipped whatever its previous state. With
// never-miss-twice enabled, a skip right after a skipped or failed day
// resets the current streak.
func (s *Service) Skip(
	ctx context.Context,
	userID, habitID, date string,
) (*SkipResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("skip habit: %w", core.ErrUnauthorized)
	}
	previous, err := core.AddDays(date, -1)
	if err != nil {
		return nil, fmt.Errorf("skip habit: %w", err)
	}

	ctx, span := core.StartSpan(ctx, "habit.skip",
		attribute.String("habit.id", habitID),
		attribute.String("habit.date", date),
	)

	var result *SkipResult
	err = s.inTx(ctx, func(_ core.DBTX, repo Repository) error {
		h, err := repo.GetForUpdate(ctx, userID, habitID)
		if err != nil {
			return err
		}

		existing, err := repo.GetLog(ctx, h.ID, date)
		switch {
		case errors.Is(err, core.ErrNotFound):
			err = repo.InsertLog(ctx, &Log{
				ID:      uuid.New().String(),
				HabitID: h.ID,
				UserID:  userID,
				Date:    date,
				Status:  StatusSkipped,
			})
		case err == nil:
			existing.Status = StatusSkipped
			existing.CompletedAt = nil
			err = repo.UpdateLog(ctx, existing)
		}
		if err != nil {
			return err
		}

		if s.neverMissTwice && h.StreakCurrent > 0 {
			missed, err := missedOn(ctx, repo, h.ID, previous)
			if err != nil {
				return err
			}
			if missed {
				h.BreakStreak()
				if err := repo.UpdateStreak(ctx, h); err != nil {
					return err
				}
			}
		}

		result = &SkipResult{Action: ActionSkipped, Streak: h.StreakCurrent}
		return nil
	})
	core.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("skip habit: %w", err)
	}

	return result, nil
}

func missedOn(ctx context.Context, repo Repository, habitID, date string) (bool, error) {
	l, err := repo.GetLog(ctx, habitID, date)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return l.Status == StatusSkipped || l.Status == StatusFailed, nil
}

func (s *Service) GetStats(ctx context.Context, userID, habitID string) (*Stats, error) {
	if userID == "" {
		return nil, fmt.Errorf("habit stats: %w", core.ErrUnauthorized)
	}

	h, err := s.repo.GetByID(ctx, userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("habit stats: %w", err)
	}

	logs, err := s.repo.ListLogs(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("habit stats: %w", err)
	}

	stats := ComputeStats(logs)
	stats.StreakCurrent = h.StreakCurrent
	stats.StreakLongest = h.StreakLongest

	return &stats, nil
}

// LogsForDateRange returns the caller's logs between from and to
// inclusive, optionally narrowed to one habit.
func (s *Service) LogsForDateRange(
	ctx context.Context,
	userID, from, to, habitID string,
) ([]Log, error) {
	if userID == "" {
		return nil, fmt.Errorf("list logs: %w", core.ErrUnauthorized)
	}

	start, err := core.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	end, err := core.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("from must not be after to: %w", core.ErrInvalidInput)
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > s.maxRangeDays {
		return nil, fmt.Errorf(
			"range spans %d days, at most %d allowed: %w",
			days, s.maxRangeDays, core.ErrInvalidInput,
		)
	}

	if habitID != "" {
		if _, err := s.repo.GetByID(ctx, userID, habitID); err != nil {
			return nil, fmt.Errorf("list logs: %w", err)
		}
	}

	return s.repo.ListLogsInRange(ctx, userID, from, to, habitID)
}

// DailyScore rates date for the caller. An empty date means today in
// the caller's timezone.
func (s *Service) DailyScore(ctx context.Context, userID, date string) (string, int, error) {
	if userID == "" {
		return "", 0, fmt.Errorf("daily score: %w", core.ErrUnauthorized)
	}

	owner, err := s.repo.GetOwner(ctx, userID, false)
	if err != nil {
		return "", 0, fmt.Errorf("daily score: %w", err)
	}
	loc := owner.Location()

	if date == "" {
		date = core.DayIn(s.clock.Now(), loc)
	}
	if _, err := core.ParseDate(date); err != nil {
		return "", 0, fmt.Errorf("daily score: %w", err)
	}

	habits, err := s.repo.ListByUser(ctx, userID, true)
	if err != nil {
		return "", 0, fmt.Errorf("daily score: %w", err)
	}

	logs, err := s.repo.ListLogsInRange(ctx, userID, date, date, "")
	if err != nil {
		return "", 0, fmt.Errorf("daily score: %w", err)
	}

	return date, DailyScore(habits, logs, date, loc), nil
}

// Reorder assigns order 0..n-1 to ids in the given sequence.
func (s *Service) Reorder(ctx context.Context, userID string, ids []string) error {
	if userID == "" {
		return fmt.Errorf("reorder habits: %w", core.ErrUnauthorized)
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("duplicate habit id %s: %w", id, core.ErrInvalidInput)
		}
		seen[id] = true
	}

	err := s.inTx(ctx, func(_ core.DBTX, repo Repository) error {
		for i, id := range ids {
			if err := repo.SetOrder(ctx, userID, id, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reorder habits: %w", err)
	}

	return nil
}

func (s *Service) Counts(ctx context.Context) (*Counts, error) {
	return s.repo.Counts(ctx)
}
