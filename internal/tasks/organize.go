// package tasks implements the batch pipeline over the music library.
//
// The core abstraction is PipelineEngine, which drives evidence collection,
// genre fusion and playlist matching across the whole collection in paced
// batches. Operations emit progress updates via channels for non-blocking
// status reporting to the CLI layer.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkbecker/genreflow/internal/analysis"
	"github.com/mkbecker/genreflow/internal/genre"
	"github.com/mkbecker/genreflow/internal/matching"
	"github.com/mkbecker/genreflow/internal/services"
	"github.com/mkbecker/genreflow/internal/shared"
)

// OrganizeOpts configures one organize run.
type OrganizeOpts struct {
	// DryRun computes everything but withholds all writes.
	DryRun bool

	// BatchSize is the number of tracks per batch. Defaults to 50.
	BatchSize int

	// BatchDelay is the pause between batches. Defaults to 1s.
	BatchDelay time.Duration

	// ConfidenceThreshold is the minimum fused confidence required to act
	// on a prediction. Defaults to 0.7.
	ConfidenceThreshold float64

	// SkipThreshold short-circuits tracks whose recorded genre confidence
	// already exceeds it, before any provider work. Defaults to 0.8.
	SkipThreshold float64
}

func (o OrganizeOpts) withDefaults() OrganizeOpts {
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.BatchDelay <= 0 {
		o.BatchDelay = time.Second
	}
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = 0.7
	}
	if o.SkipThreshold <= 0 {
		o.SkipThreshold = 0.8
	}
	return o
}

// TrackReport is the per-track outcome detail.
type TrackReport struct {
	TrackID     string `json:"trackId"`
	TrackTitle  string `json:"trackTitle"`
	TrackArtist string `json:"trackArtist"`

	Success           bool   `json:"success"`
	Updated           bool   `json:"updated"`
	Skipped           bool   `json:"skipped"`
	PlaylistAdditions int    `json:"playlistAdditions"`
	Error             string `json:"error,omitempty"`

	MatchedPlaylists []string           `json:"matchedPlaylists,omitempty"`
	Analysis         *analysis.Analysis `json:"analysis,omitempty"`
}

// RemixAnalysis counts remixes across one run.
type RemixAnalysis struct {
	TotalRemixes     int `json:"totalRemixes"`
	ProcessedRemixes int `json:"processedRemixes"`
}

// OrganizeResult is the aggregate outcome of one organize run.
type OrganizeResult struct {
	RunID  string `json:"runId"`
	DryRun bool   `json:"dryRun"`

	Processed         int `json:"processed"`
	Updated           int `json:"updated"`
	PlaylistAdditions int `json:"playlistAdditions"`
	Errors            int `json:"errors"`
	Skipped           int `json:"skipped"`
	Batches           int `json:"batches"`

	SuccessRate       float64        `json:"successRate"`
	GenreDistribution map[string]int `json:"genreDistribution"`
	RemixAnalysis     RemixAnalysis  `json:"remixAnalysis"`

	Details []TrackReport `json:"details"`
}

// Engine defines the batch operations over the library.
type Engine interface {
	// Organize runs the full genre inference and playlist matching
	// pipeline over every track in the library.
	Organize(ctx context.Context, progress chan<- ProgressUpdate, opts OrganizeOpts) (*OrganizeResult, error)

	// Analyze reports on the current state of the collection without
	// modifying anything.
	Analyze(ctx context.Context, progress chan<- ProgressUpdate, confidenceThreshold float64) (*CollectionReport, error)
}

// PipelineEngine implements Engine over the library store, the evidence
// collector, the genre fuser and the playlist matcher.
type PipelineEngine struct {
	library   services.Library
	collector *analysis.Collector
	fuser     *analysis.Fuser
	matcher   *matching.Matcher
	logger    *log.Logger
}

// NewPipelineEngine creates a PipelineEngine with the provided collaborators.
func NewPipelineEngine(library services.Library, collector *analysis.Collector, fuser *analysis.Fuser, matcher *matching.Matcher, logger *log.Logger) *PipelineEngine {
	return &PipelineEngine{
		library:   library,
		collector: collector,
		fuser:     fuser,
		matcher:   matcher,
		logger:    logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PipelineEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Organize runs the pipeline: connect, fetch a point-in-time snapshot of
// tracks and playlists, process tracks in paced batches, then summarize.
//
// A cancelled context stops the run between tracks; counts for everything
// already processed are still summarized and returned alongside the error.
func (e *PipelineEngine) Organize(ctx context.Context, progress chan<- ProgressUpdate, opts OrganizeOpts) (*OrganizeResult, error) {
	opts = opts.withDefaults()

	result := &OrganizeResult{
		RunID:             shared.GenerateID(),
		DryRun:            opts.DryRun,
		GenreDistribution: make(map[string]int),
	}

	e.sendProgress(progress, connectUpdate())
	if err := e.library.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrLibraryUnavailable, err)
	}

	e.sendProgress(progress, fetchTracksUpdate())
	tracks, err := e.library.AllTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracks: %w", err)
	}

	e.sendProgress(progress, fetchPlaylistsUpdate())
	playlists, err := e.library.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	e.logger.Info("starting organize run",
		"run_id", result.RunID, "tracks", len(tracks), "playlists", len(playlists),
		"batch_size", opts.BatchSize, "dry_run", opts.DryRun)

	if len(tracks) == 0 {
		e.summarize(result)
		e.sendProgress(progress, summarizeUpdate(result))
		return result, nil
	}

	totalBatches := (len(tracks) + opts.BatchSize - 1) / opts.BatchSize

	for start := 0; start < len(tracks); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(tracks) {
			end = len(tracks)
		}
		result.Batches++
		e.sendProgress(progress, batchUpdate(result.Batches, totalBatches))

		for i, track := range tracks[start:end] {
			if err := ctx.Err(); err != nil {
				e.summarize(result)
				return result, err
			}

			e.sendProgress(progress, trackUpdate(start+i+1, len(tracks), track.Artist, track.Title))
			report := e.processTrack(ctx, track, playlists, opts)

			result.Processed++
			if report.Updated {
				result.Updated++
			}
			if report.Skipped {
				result.Skipped++
			}
			if !report.Success {
				result.Errors++
			}
			result.PlaylistAdditions += report.PlaylistAdditions
			result.Details = append(result.Details, report)
		}

		if end < len(tracks) {
			select {
			case <-ctx.Done():
				e.summarize(result)
				return result, ctx.Err()
			case <-time.After(opts.BatchDelay):
			}
		}
	}

	e.summarize(result)
	e.sendProgress(progress, summarizeUpdate(result))

	e.logger.Info("organize run completed",
		"run_id", result.RunID, "processed", result.Processed, "updated", result.Updated,
		"additions", result.PlaylistAdditions, "skipped", result.Skipped, "errors", result.Errors)

	return result, nil
}

// processTrack runs the pipeline for one track. Panics are converted into an
// error report so one bad track never aborts the batch.
func (e *PipelineEngine) processTrack(ctx context.Context, track services.Track, playlists []services.Playlist, opts OrganizeOpts) (report TrackReport) {
	report = TrackReport{
		TrackID:     track.ID,
		TrackTitle:  track.Title,
		TrackArtist: track.Artist,
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while processing track", "track", track.Title, "panic", r)
			report.Success = false
			report.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	// Tracks already tagged with high confidence cost nothing.
	if track.Genre != "" && track.Confidence > opts.SkipThreshold {
		e.logger.Debug("skipping high-confidence track", "track", track.Title, "genre", track.Genre)
		report.Skipped = true
		report.Success = true
		return report
	}

	bundle, err := e.collector.Collect(ctx, track)
	if err != nil {
		report.Error = fmt.Sprintf("evidence collection failed: %v", err)
		return report
	}

	fused := e.fuser.Fuse(track, bundle)
	report.Analysis = &fused

	if fused.Confidence < opts.ConfidenceThreshold {
		e.logger.Debug("low confidence, skipping",
			"track", track.Title, "genre", fused.PredictedGenre, "confidence", fused.Confidence)
		report.Skipped = true
		report.Success = true
		return report
	}

	if !opts.DryRun && fused.PredictedGenre.String() != track.Genre {
		e.logger.Info("updating genre",
			"track", track.Title, "from", track.Genre, "to", fused.PredictedGenre)
		if err := e.library.SetTrackGenre(ctx, track.ID, fused.PredictedGenre.String()); err != nil {
			report.Error = fmt.Sprintf("genre update failed: %v", err)
			return report
		}
		report.Updated = true
	}

	report.MatchedPlaylists = e.matcher.Match(fused.PredictedGenre, fused.IsRemix, playlists)

	if !opts.DryRun {
		for _, playlistID := range report.MatchedPlaylists {
			// Membership can have changed since the snapshot; re-check
			// right before writing.
			memberIDs, err := e.library.PlaylistTrackIDs(ctx, playlistID)
			if err != nil {
				e.logger.Warn("membership check failed", "playlist", playlistID, "err", err)
				continue
			}
			if containsID(memberIDs, track.ID) {
				continue
			}

			if err := e.library.AddTrackToPlaylist(ctx, playlistID, track.ID); err != nil {
				e.logger.Warn("playlist add failed", "playlist", playlistID, "track", track.Title, "err", err)
				continue
			}
			report.PlaylistAdditions++
		}
	}

	report.Success = true
	return report
}

// summarize fills the aggregate fields from the per-track details.
func (e *PipelineEngine) summarize(result *OrganizeResult) {
	if result.Processed > 0 {
		result.SuccessRate = float64(result.Processed-result.Errors) / float64(result.Processed)
	}

	for _, detail := range result.Details {
		if detail.Analysis == nil {
			continue
		}

		if detail.Analysis.PredictedGenre != genre.Unknown {
			result.GenreDistribution[detail.Analysis.PredictedGenre.String()]++
		}
		if detail.Analysis.IsRemix {
			result.RemixAnalysis.TotalRemixes++
			if detail.Success {
				result.RemixAnalysis.ProcessedRemixes++
			}
		}
	}
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
