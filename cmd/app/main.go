package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/michelcaradec/evernote-migration/internal"
	"github.com/michelcaradec/evernote-migration/internal/evernote"
	"github.com/michelcaradec/evernote-migration/internal/migrate"
	"github.com/michelcaradec/evernote-migration/internal/move"
	pkgconfig "github.com/michelcaradec/evernote-migration/pkg/config"
)

const dateFlagLayout = "2006-01-02"

func setup(cmd *cli.Command) (*internal.Config, *slog.Logger, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	var db *evernote.DB
	if dbPath := cmd.String("evernote-db"); dbPath != "" {
		db, err = evernote.Open(dbPath, logger)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	opts := migrate.Options{
		Source:     cmd.String("folder"),
		ReportPath: cmd.String("report"),
		Keep:       cmd.Bool("keep"),
		Overwrite:  cmd.Bool("overwrite"),
		ReportOnly: cmd.Bool("report-only"),
	}
	m, err := migrate.New(opts, cfg.Migration, db, logger)
	if err != nil {
		return err
	}
	_, err = m.Run(ctx)
	return err
}

func runMove(_ context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	opts := move.Options{
		Source:     cmd.String("folder"),
		Dest:       cmd.String("dest"),
		ReportPath: cmd.String("report"),
	}
	if raw := cmd.String("date-updated"); raw != "" {
		threshold, err := time.Parse(dateFlagLayout, raw)
		if err != nil {
			return fmt.Errorf("failed to parse date %q (want YYYY-MM-DD): %w", raw, err)
		}
		opts.UpdatedSince = threshold
	}

	_, err = move.Run(opts, cfg.Migration, logger)
	return err
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func folderFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "folder",
		Usage:    "Folder where the notes are located",
		Required: true,
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "evernote-migration",
		Usage: "Reorganize Evernote Markdown exports into a flat, deduplicated, cross-linked archive",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Flatten a notebook export, deduplicate attachments, and rewrite note links",
				Action: runMigrate,
				Flags: []cli.Flag{
					configFlag(),
					folderFlag(),
					&cli.StringFlag{
						Name:  "report",
						Usage: "Path of the migration report",
					},
					&cli.StringFlag{
						Name:  "evernote-db",
						Usage: "Path to the Evernote local database (enables link resolution)",
					},
					&cli.BoolFlag{
						Name:  "keep",
						Usage: "Keep the original notes folders",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Overwrite existing single-file notes on name collision",
					},
					&cli.BoolFlag{
						Name:  "report-only",
						Usage: "Generate a report without migrating notes (requires --report)",
					},
				},
			},
			{
				Name:   "move",
				Usage:  "Move already-migrated notes to another notebook, selected by update date",
				Action: runMove,
				Flags: []cli.Flag{
					configFlag(),
					folderFlag(),
					&cli.StringFlag{
						Name:     "dest",
						Usage:    "Destination folder where to move the notes",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "report",
						Usage:    "Path of the migration report",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "date-updated",
						Usage: "Date of update (YYYY-MM-DD) on/after which the notes are moved",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
