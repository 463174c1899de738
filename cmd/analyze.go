package main

import (
	"context"

	"github.com/mkbecker/genreflow/internal/formatter"
	"github.com/mkbecker/genreflow/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Analyze reports on the collection without modifying it.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	asJSON := cmd.Bool("json")
	threshold := r.config.Organizer.ConfidenceThreshold

	r.logger.Info("analyzing collection", "confidence_threshold", threshold)

	progressCh := make(chan tasks.ProgressUpdate, 10)
	go func() {
		for update := range progressCh {
			if !asJSON {
				r.writePlain("📥 %s\n", update.Message)
			}
		}
	}()

	report, err := r.engine.Analyze(ctx, progressCh, threshold)
	close(progressCh)

	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(report, true)
	}

	r.writePlain("\n")
	return r.writePlain("%s", formatter.CollectionSummary(report))
}

func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Report genre coverage and playlist consistency",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the full report as JSON",
			},
		},
		Action: r.Analyze,
	}
}
