// AngelaMos | 2026
// commands.go

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/carterperez-dev/habit-ledger/internal/auth"
	"github.com/carterperez-dev/habit-ledger/internal/config"
	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/gamification"
	"github.com/carterperez-dev/habit-ledger/internal/habit"
	"github.com/carterperez-dev/habit-ledger/internal/migrate"
	"github.com/carterperez-dev/habit-ledger/internal/user"
)

const commandTimeout = 10 * time.Minute

// appContext opens the config and database on first use so that
// commands like keygen run without either.
type appContext struct {
	configPath string
	logger     *slog.Logger
	cfg        *config.Config
	db         *core.Database
}

func (a *appContext) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *appContext) database(ctx context.Context) (*core.Database, error) {
	if a.db != nil {
		return a.db, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *appContext) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
		a.db = nil
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

type MigrateCmd struct {
	DryRun bool `help:"List pending migrations without applying them."`
}

func (c *MigrateCmd) Run(app *appContext) error {
	ctx, cancel := commandContext()
	defer cancel()

	db, err := app.database(ctx)
	if err != nil {
		return err
	}
	runner := migrate.NewRunner(db.DB, app.logger)

	if c.DryRun {
		pending, err := runner.Pending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("schema is up to date")
			return nil
		}
		for _, m := range pending {
			fmt.Printf("pending %03d_%s\n", m.Version, m.Name)
		}
		return nil
	}

	count, err := runner.Apply(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Printf("applied %d migration(s)\n", count)
	return nil
}

type KeygenCmd struct {
	PrivateKey string `help:"Private key output path." default:"keys/private.pem" type:"path"`
	PublicKey  string `help:"Public key output path." default:"keys/public.pem" type:"path"`
	Force      bool   `help:"Overwrite existing key files."`
}

func (c *KeygenCmd) Run(app *appContext) error {
	if !c.Force {
		for _, path := range []string{c.PrivateKey, c.PublicKey} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s exists, pass --force to overwrite", path)
			}
		}
	}

	if err := auth.GenerateKeyPair(c.PrivateKey, c.PublicKey); err != nil {
		return err
	}

	app.logger.Info("key pair written", "private", c.PrivateKey, "public", c.PublicKey)
	return nil
}

type TokenCmd struct {
	UserID string `arg:"" help:"User id to mint the token for."`
}

func (c *TokenCmd) Run(app *appContext) error {
	ctx, cancel := commandContext()
	defer cancel()

	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}
	db, err := app.database(ctx)
	if err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT, clockwork.NewRealClock())
	if err != nil {
		return err
	}

	u, err := user.NewService(user.NewRepository(db.DB), app.logger).GetByID(ctx, c.UserID)
	if err != nil {
		return fmt.Errorf("look up user %s: %w", c.UserID, err)
	}

	issued, err := jwtManager.CreateAccessToken(auth.AccessTokenClaims{
		UserID:       u.ID,
		Role:         u.Role,
		Plan:         u.Plan,
		TokenVersion: u.TokenVersion,
	})
	if err != nil {
		return err
	}

	fmt.Println(issued.Token)
	app.logger.Debug("token minted",
		"user_id", u.ID,
		"jti", issued.JWTID,
		"expires_at", issued.ExpiresAt,
	)
	return nil
}

type SweepCmd struct {
	User string `help:"Sweep a single user instead of everyone."`
}

func (c *SweepCmd) Run(app *appContext) error {
	ctx, cancel := commandContext()
	defer cancel()

	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}
	db, err := app.database(ctx)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	xp := gamification.NewService(gamification.NewRepository(db.DB), db, clock, app.logger)
	svc := habit.NewService(habit.ServiceConfig{
		Repo:                     habit.NewRepository(db.DB),
		Transactor:               db,
		XP:                       xp,
		Clock:                    clock,
		Logger:                   app.logger,
		FreeLimit:                cfg.Habits.FreeLimit,
		NeverMissTwice:           cfg.Habits.NeverMissTwice,
		PersistUncompletePenalty: cfg.Gamification.PersistUncompletePenalty,
		MaxRangeDays:             cfg.Habits.MaxRangeDays,
		SweepConcurrency:         cfg.Jobs.SweepConcurrency,
	})

	var result *habit.SweepResult
	if c.User != "" {
		result, err = svc.SweepUser(ctx, c.User)
	} else {
		result, err = svc.Sweep(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Printf("users=%d failed_logs=%d freezes_used=%d streaks_reset=%d errors=%d\n",
		result.Users,
		result.FailedLogs,
		result.FreezesUsed,
		result.StreaksReset,
		result.Errors,
	)
	return nil
}

type PlanCmd struct {
	UserID string `arg:"" help:"User id."`
	Plan   string `arg:"" help:"New plan tier." enum:"free,pro,lifetime"`
}

func (c *PlanCmd) Run(app *appContext) error {
	ctx, cancel := commandContext()
	defer cancel()

	db, err := app.database(ctx)
	if err != nil {
		return err
	}

	u, err := user.NewService(user.NewRepository(db.DB), app.logger).
		UpdateUserPlan(ctx, c.UserID, c.Plan)
	if err != nil {
		return err
	}

	fmt.Printf("%s is now on the %s plan\n", u.Email, u.Plan)
	return nil
}
