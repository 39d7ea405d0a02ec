// AngelaMos | 2026
// main.go

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Path to a YAML config file. Environment variables override it." type:"path"`
	Debug   bool   `help:"Log at debug level."`

	Migrate MigrateCmd `cmd:"" help:"Apply pending database migrations."`
	Keygen  KeygenCmd  `cmd:"" help:"Write a new ES256 key pair for signing access tokens."`
	Token   TokenCmd   `cmd:"" help:"Mint an access token for an existing user."`
	Sweep   SweepCmd   `cmd:"" help:"Run the missed-day sweep once."`
	Plan    PlanCmd    `cmd:"" help:"Set a user's plan tier."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: load .env: %v\n", err)
	}

	ctx := kong.Parse(&CLI,
		kong.Name("ledgerctl"),
		kong.Description("Operator tooling for the habit ledger service."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": "v1.0.0"},
	)

	level := slog.LevelInfo
	if CLI.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	app := &appContext{configPath: CLI.Config, logger: logger}
	defer app.close()

	if err := ctx.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		app.close()
		os.Exit(1)
	}
}
