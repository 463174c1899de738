package tasks

import (
	"context"
	"fmt"

	"github.com/mkbecker/genreflow/internal/shared"
)

// CollectionReport summarizes the current state of the library: how tracks
// are tagged today and how consistent the playlist collection is.
type CollectionReport struct {
	TotalTracks    int `json:"totalTracks"`
	TotalPlaylists int `json:"totalPlaylists"`

	TracksWithoutGenre      int            `json:"tracksWithoutGenre"`
	TracksWithLowConfidence int            `json:"tracksWithLowConfidence"`
	GenreDistribution       map[string]int `json:"genreDistribution"`

	PlaylistReport  any      `json:"playlistAnalysis"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Analyze inspects the collection without modifying it: genre coverage,
// low-confidence tags, and playlist consistency.
func (e *PipelineEngine) Analyze(ctx context.Context, progress chan<- ProgressUpdate, confidenceThreshold float64) (*CollectionReport, error) {
	if confidenceThreshold <= 0 {
		confidenceThreshold = 0.7
	}

	e.sendProgress(progress, connectUpdate())
	if err := e.library.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrLibraryUnavailable, err)
	}

	e.sendProgress(progress, analyzeUpdate("Analyzing collection..."))

	tracks, err := e.library.AllTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracks: %w", err)
	}
	playlists, err := e.library.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	report := &CollectionReport{
		TotalTracks:       len(tracks),
		TotalPlaylists:    len(playlists),
		GenreDistribution: make(map[string]int),
	}

	for _, track := range tracks {
		if track.Genre == "" {
			report.TracksWithoutGenre++
		} else {
			report.GenreDistribution[track.Genre]++
		}
		if track.Confidence > 0 && track.Confidence < confidenceThreshold {
			report.TracksWithLowConfidence++
		}
	}

	playlistReport := e.matcher.Audit(playlists)
	report.PlaylistReport = playlistReport

	if report.TracksWithoutGenre > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("Consider processing %d tracks without genre tags", report.TracksWithoutGenre))
	}
	if report.TracksWithLowConfidence > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("Review %d tracks with low confidence genre tags", report.TracksWithLowConfidence))
	}
	report.Recommendations = append(report.Recommendations, playlistReport.Recommendations...)

	e.logger.Info("collection analyzed",
		"tracks", report.TotalTracks, "playlists", report.TotalPlaylists,
		"untagged", report.TracksWithoutGenre, "low_confidence", report.TracksWithLowConfidence)

	return report, nil
}
