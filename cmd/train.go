package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mkbecker/genreflow/internal/audio"
	"github.com/mkbecker/genreflow/internal/genre"
	"github.com/mkbecker/genreflow/internal/shared"
	"github.com/urfave/cli/v3"
)

// labeledSample is one entry in the training manifest: an audio file path
// (with a feature sidecar next to it) and its known genre.
type labeledSample struct {
	Path  string `json:"path"`
	Genre string `json:"genre"`
}

// Train builds a genre model from a labeled sample manifest and persists it.
func (r *Runner) Train(ctx context.Context, cmd *cli.Command) error {
	samplesPath := cmd.String("samples")
	modelPath := cmd.String("output")
	if modelPath == "" {
		modelPath = r.config.Audio.ModelPath
	}
	if modelPath == "" {
		return fmt.Errorf("%w: model output path (set audio.model_path or pass --output)", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(samplesPath)
	if err != nil {
		return fmt.Errorf("failed to read samples manifest: %w", err)
	}

	var manifest []labeledSample
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse samples manifest: %w", err)
	}

	r.logger.Info("training classifier", "samples", len(manifest), "model", modelPath)
	r.writePlain("Training on %d labeled tracks...\n", len(manifest))

	extractor := &audio.SidecarExtractor{SampleRate: r.config.Audio.SampleRate}
	table := genre.DefaultTable()

	samples := make([]audio.Sample, 0, len(manifest))
	for _, entry := range manifest {
		label := table.Canonical(entry.Genre)
		if label == genre.Unknown {
			r.logger.Warn("skipping sample with unknown genre", "path", entry.Path, "genre", entry.Genre)
			continue
		}

		features, err := extractor.Extract(entry.Path)
		if err != nil {
			r.logger.Warn("skipping sample without usable features", "path", entry.Path, "err", err)
			continue
		}
		samples = append(samples, audio.Sample{Features: features, Label: label})
	}

	classifier := audio.NewCentroidClassifier(r.logger)
	if err := classifier.Train(samples); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	if err := classifier.Save(modelPath); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	r.writePlain("✓ Trained on %d/%d samples\n", len(samples), len(manifest))
	r.writePlain("✓ Model saved to %s\n", modelPath)
	return nil
}

func trainCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "Train the audio genre model from labeled samples",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "samples",
				Aliases:  []string{"s"},
				Usage:    "Path to a JSON manifest of labeled audio files",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Where to write the trained model",
			},
		},
		Action: r.Train,
	}
}
