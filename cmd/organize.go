package main

import (
	"context"

	"github.com/mkbecker/genreflow/internal/formatter"
	"github.com/mkbecker/genreflow/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Organize runs the full inference pipeline over the library.
func (r *Runner) Organize(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.OrganizeOpts{
		DryRun:              cmd.Bool("dry-run"),
		BatchSize:           int(cmd.Int("batch-size")),
		BatchDelay:          batchDelay(r.config.Organizer.BatchDelaySeconds),
		ConfidenceThreshold: r.config.Organizer.ConfidenceThreshold,
		SkipThreshold:       r.config.Organizer.SkipThreshold,
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = r.config.Organizer.BatchSize
	}
	if threshold := cmd.Float64("confidence"); threshold > 0 {
		opts.ConfidenceThreshold = threshold
	}

	asJSON := cmd.Bool("json")

	r.logger.Info("starting organize", "dry_run", opts.DryRun, "batch_size", opts.BatchSize)
	if !asJSON {
		r.writePlain("Organizing library...\n\n")
	}

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 100)
	go func() {
		for update := range progressCh {
			if asJSON {
				continue
			}
			switch update.Phase {
			case tasks.Connect, tasks.FetchTracks, tasks.FetchPlaylists:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ProcessBatch:
				r.writePlain("\n🔍 %s\n", update.Message)
			case tasks.ProcessTrack:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Organize(ctx, progressCh, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Organize Complete!")
	return r.writePlain("%s", formatter.OrganizeSummary(result))
}

func organizeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "organize",
		Usage: "Infer genres for every track and sort them into playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Compute predictions and matches without writing anything",
			},
			&cli.IntFlag{
				Name:    "batch-size",
				Aliases: []string{"b"},
				Usage:   "Tracks per batch",
			},
			&cli.Float64Flag{
				Name:  "confidence",
				Usage: "Minimum confidence required to act on a prediction",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the full run result as JSON",
			},
		},
		Action: r.Organize,
	}
}
