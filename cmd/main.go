package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/mkbecker/genreflow/internal/analysis"
	"github.com/mkbecker/genreflow/internal/audio"
	"github.com/mkbecker/genreflow/internal/genre"
	"github.com/mkbecker/genreflow/internal/matching"
	"github.com/mkbecker/genreflow/internal/repositories"
	"github.com/mkbecker/genreflow/internal/services"
	"github.com/mkbecker/genreflow/internal/shared"
	"github.com/mkbecker/genreflow/internal/tasks"
)

func main() {
	logger := shared.NewLogger(nil)
	shared.LoadDotenv()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	library := services.NewLibraryService(config.Library.BaseURL, config.Library.APIVersion, nil)

	providers := []services.Provider{}
	if config.Lastfm.APIKey != "" {
		providers = append(providers, services.NewLastfmService(config.Lastfm.APIKey, config.Lastfm.APISecret, logger))
	}
	providers = append(providers, services.NewMusicBrainzService(config.MusicBrainz.UserAgent, nil, logger))

	var cache analysis.Cacher
	if config.Database.Path != "" {
		if db, err := shared.NewDatabase(config.Database.Path); err == nil {
			repo := repositories.NewEvidenceRepository(db)
			if err := repo.Migrate(context.Background()); err == nil {
				cache = repo
			} else {
				logger.Warn("evidence cache unavailable", "err", err)
			}
		} else {
			logger.Warn("evidence database unavailable", "path", config.Database.Path, "err", err)
		}
	}

	rateLimit := config.Organizer.ProviderRateLimit
	if rateLimit <= 0 {
		rateLimit = 5
	}
	limiter := rate.NewLimiter(rate.Limit(rateLimit), 1)

	collector := analysis.NewCollector(providers, limiter, cache, config.Organizer.RemixKeywords, logger)

	extractor := &audio.SidecarExtractor{SampleRate: config.Audio.SampleRate}
	classifier := audio.NewCentroidClassifier(logger)
	if config.Audio.ModelPath != "" {
		if err := classifier.Load(config.Audio.ModelPath); err != nil {
			if errors.Is(err, shared.ErrModelNotFound) {
				logger.Debug("no trained model, metadata analysis only", "path", config.Audio.ModelPath)
			} else {
				logger.Warn("failed to load audio model", "path", config.Audio.ModelPath, "err", err)
			}
		}
	}

	fuser := analysis.NewFuser(analysis.FuserOpts{
		Table:        genre.DefaultTable(),
		Suggestions:  genre.DefaultSuggestions(),
		Extractor:    extractor,
		Classifier:   classifier,
		RemixPenalty: config.Organizer.RemixPenalty,
	}, logger)

	matcher := matching.NewMatcher(genre.DefaultSimilarity(), genre.DefaultSubGenres())
	engine := tasks.NewPipelineEngine(library, collector, fuser, matcher, logger)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Library: library,
		Engine:  engine,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "genreflow",
		Usage:    "Infer genres and organize playlists across a music library",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// Setup writes a starter config file and initializes the evidence database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		r.logger.Warn("config file not created", "err", err)
		r.writePlain("Config: %v\n", err)
	} else {
		r.writePlain("✓ Created %s\n", configPath)
	}

	if r.config.Database.Path == "" {
		r.writePlain("No database path configured, skipping cache setup.\n")
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewEvidenceRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Evidence cache ready at %s\n", r.config.Database.Path)
	return nil
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a starter config file and initialize the evidence cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// batchDelay converts the configured fractional seconds into a duration.
func batchDelay(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
