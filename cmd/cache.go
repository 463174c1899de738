package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkbecker/genreflow/internal/repositories"
	"github.com/mkbecker/genreflow/internal/shared"
	"github.com/urfave/cli/v3"
)

// openEvidence opens the configured evidence database for cache commands.
func (r *Runner) openEvidence(ctx context.Context) (*sql.DB, *repositories.EvidenceRepository, error) {
	if r.config.Database.Path == "" {
		return nil, nil, fmt.Errorf("%w: database.path", shared.ErrInvalidConfig)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	repo := repositories.NewEvidenceRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}

// CacheStats prints evidence cache statistics.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, repo, err := r.openEvidence(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := repo.Stats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlainHeader("Evidence Cache")
	r.writePlain("Entries: %d\n", stats.Entries)
	r.writePlain("Hits:    %d\n", stats.TotalHits)
	if stats.Oldest != nil {
		r.writePlain("Oldest:  %s\n", stats.Oldest.Format("2006-01-02 15:04:05"))
	}
	if stats.Newest != nil {
		r.writePlain("Newest:  %s\n", stats.Newest.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// CacheClear deletes every cached evidence bundle.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, repo, err := r.openEvidence(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := repo.Clear(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("evidence cache cleared", "removed", removed)
	r.writePlain("✓ Removed %d cached bundles\n", removed)
	return nil
}

// cacheCommand manages the local evidence cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the local evidence cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache entry counts and hit totals",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached evidence bundles",
				Action: r.CacheClear,
			},
		},
	}
}
