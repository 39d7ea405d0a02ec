// AngelaMos | 2026
// migrate.go

package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var embedded embed.FS

// advisoryLockKey serializes migrators across replicas.
const advisoryLockKey = 7_416_233

type Migration struct {
	Version int
	Name    string
	SQL     string
}

type Runner struct {
	db     *sqlx.DB
	fs     fs.FS
	logger *slog.Logger
}

// NewRunner applies the migrations embedded in this package.
func NewRunner(db *sqlx.DB, logger *slog.Logger) *Runner {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(fmt.Sprintf("migrate: embedded sql dir: %v", err))
	}
	return NewRunnerFS(db, sub, logger)
}

func NewRunnerFS(db *sqlx.DB, fsys fs.FS, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{db: db, fs: fsys, logger: logger}
}

// parseFilename splits "NNN_name.sql" into its version and name.
func parseFilename(filename string) (int, string, error) {
	if !strings.HasSuffix(filename, ".sql") {
		return 0, "", fmt.Errorf("migration %s: not a .sql file", filename)
	}

	prefix, name, ok := strings.Cut(strings.TrimSuffix(filename, ".sql"), "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("migration %s: expected NNN_name.sql", filename)
	}

	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", fmt.Errorf("migration %s: bad version: %w", filename, err)
	}
	if version < 1 {
		return 0, "", fmt.Errorf("migration %s: version must be at least 1", filename)
	}

	return version, name, nil
}

// Load reads every migration file, sorted by version.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, name, err := parseFilename(entry.Name())
		if err != nil {
			return nil, err
		}

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			SQL:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", migrations[i].Version)
		}
	}

	return migrations, nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			name        TEXT NOT NULL,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func (r *Runner) applied(ctx context.Context, q sqlx.QueryerContext) (map[int]bool, error) {
	var versions []int
	if err := sqlx.SelectContext(ctx, q, &versions,
		`SELECT version FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}

	done := make(map[int]bool, len(versions))
	for _, v := range versions {
		done[v] = true
	}
	return done, nil
}

// Pending lists migrations not yet recorded in schema_migrations.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	migrations, err := Load(r.fs)
	if err != nil {
		return nil, err
	}
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}

	done, err := r.applied(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, m := range migrations {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Apply runs each pending migration in its own transaction and returns
// how many were applied.
func (r *Runner) Apply(ctx context.Context) (int, error) {
	migrations, err := Load(r.fs)
	if err != nil {
		return 0, err
	}
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}

	count := 0
	for _, m := range migrations {
		ran, err := r.applyOne(ctx, m)
		if err != nil {
			return count, err
		}
		if ran {
			count++
			r.logger.Info("migration applied", "version", m.Version, "name", m.Name)
		}
	}

	if count == 0 {
		r.logger.Debug("schema up to date", "migrations", len(migrations))
	}
	return count, nil
}

func (r *Runner) applyOne(ctx context.Context, m Migration) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
		return false, fmt.Errorf("lock migration %d: %w", m.Version, err)
	}

	done, err := r.applied(ctx, tx)
	if err != nil {
		return false, err
	}
	if done[m.Version] {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return false, fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
		m.Version, m.Name); err != nil {
		return false, fmt.Errorf("record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return true, nil
}

// Check fails when migrations are pending. It backs the readiness probe.
func (r *Runner) Check(ctx context.Context) error {
	pending, err := r.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return fmt.Errorf("%d migration(s) pending, first is %d_%s",
			len(pending), pending[0].Version, pending[0].Name)
	}
	return nil
}
