package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkbecker/genreflow/internal/analysis"
	"github.com/mkbecker/genreflow/internal/genre"
	"github.com/mkbecker/genreflow/internal/matching"
	"github.com/mkbecker/genreflow/internal/services"
	"github.com/mkbecker/genreflow/internal/shared"
	tu "github.com/mkbecker/genreflow/internal/testing"
)

func newTestEngine(library services.Library, providers ...services.Provider) *PipelineEngine {
	logger := log.New(io.Discard)
	collector := analysis.NewCollector(providers, nil, nil, []string{"remix", "edit", "mix", "extended"}, logger)
	fuser := analysis.NewFuser(analysis.FuserOpts{
		Table:       genre.DefaultTable(),
		Suggestions: genre.DefaultSuggestions(),
	}, logger)
	matcher := matching.NewMatcher(genre.DefaultSimilarity(), genre.DefaultSubGenres())
	return NewPipelineEngine(library, collector, fuser, matcher, logger)
}

// housePayload answers with a single unanimous "house" tag. Two of these
// providers push fused confidence to 0.8, above the default threshold.
func housePayload(source string) *services.Payload {
	return &services.Payload{Source: source, TrackTags: []string{"house"}}
}

func fastOpts() OrganizeOpts {
	return OrganizeOpts{BatchDelay: time.Millisecond}
}

func TestOrganize(t *testing.T) {
	ctx := context.Background()

	t.Run("Connectivity Failure Aborts", func(t *testing.T) {
		library := &tu.MockLibrary{HealthErr: errors.New("connection refused")}
		engine := newTestEngine(library)

		result, err := engine.Organize(ctx, nil, fastOpts())
		if !errors.Is(err, shared.ErrLibraryUnavailable) {
			t.Errorf("expected ErrLibraryUnavailable, got %v", err)
		}
		if result != nil {
			t.Error("expected no result on connectivity failure")
		}
	})

	t.Run("Empty Library", func(t *testing.T) {
		library := &tu.MockLibrary{}
		engine := newTestEngine(library)

		result, err := engine.Organize(ctx, nil, fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Processed != 0 || result.Batches != 0 {
			t.Errorf("expected empty result, got %+v", result)
		}
		if result.RunID == "" {
			t.Error("expected a run id")
		}
	})

	t.Run("Batch Count And Pacing", func(t *testing.T) {
		tracks := make([]services.Track, 120)
		for i := range tracks {
			tracks[i] = services.Track{ID: fmt.Sprintf("t%d", i), Title: "Song", Artist: "Artist"}
		}
		library := &tu.MockLibrary{TrackList: tracks}
		engine := newTestEngine(library)

		opts := OrganizeOpts{BatchSize: 50, BatchDelay: 20 * time.Millisecond}
		start := time.Now()
		result, err := engine.Organize(ctx, nil, opts)
		elapsed := time.Since(start)

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Batches != 3 {
			t.Errorf("expected 3 batches, got %d", result.Batches)
		}
		if result.Processed != 120 {
			t.Errorf("expected 120 processed, got %d", result.Processed)
		}
		// Two inter-batch delays, not three.
		if elapsed < 40*time.Millisecond {
			t.Errorf("expected at least two batch delays, run took %v", elapsed)
		}
	})

	t.Run("Skip Before Work", func(t *testing.T) {
		provider := &tu.MockProvider{Payload: housePayload("a")}
		library := &tu.MockLibrary{TrackList: []services.Track{
			{ID: "t1", Title: "Song", Artist: "Artist", Genre: "House", Confidence: 0.95},
		}}
		engine := newTestEngine(library, provider)

		result, err := engine.Organize(ctx, nil, fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if provider.Lookups != 0 {
			t.Errorf("expected zero provider calls, got %d", provider.Lookups)
		}
		if result.Skipped != 1 || result.Errors != 0 {
			t.Errorf("expected 1 skip, got %+v", result)
		}
	})

	t.Run("Borderline Confidence Not Skipped Early", func(t *testing.T) {
		provider := &tu.MockProvider{Payload: housePayload("a")}
		library := &tu.MockLibrary{TrackList: []services.Track{
			{ID: "t1", Title: "Song", Artist: "Artist", Genre: "House", Confidence: 0.8},
		}}
		engine := newTestEngine(library, provider)

		if _, err := engine.Organize(ctx, nil, fastOpts()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		// 0.8 is not above the skip threshold, so the track is researched.
		if provider.Lookups == 0 {
			t.Error("expected provider calls for borderline confidence")
		}
	})

	t.Run("Genre Write And Playlist Addition", func(t *testing.T) {
		a := &tu.MockProvider{ProviderName: "a", Payload: housePayload("a")}
		b := &tu.MockProvider{ProviderName: "b", Payload: housePayload("b")}
		library := &tu.MockLibrary{
			TrackList: []services.Track{{ID: "t1", Title: "Song", Artist: "Artist"}},
			PlaylistList: []services.Playlist{
				{ID: "p1", Name: "House Essentials", Genre: "House"},
			},
		}
		engine := newTestEngine(library, a, b)

		result, err := engine.Organize(ctx, nil, fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Updated != 1 {
			t.Errorf("expected 1 update, got %d", result.Updated)
		}
		if library.GenreWrites["t1"] != "House" {
			t.Errorf("expected genre write House, got %v", library.GenreWrites)
		}
		if library.MemberQueries != 1 {
			t.Errorf("expected 1 membership re-check, got %d", library.MemberQueries)
		}
		if result.PlaylistAdditions != 1 || len(library.AddCalls) != 1 || library.AddCalls[0] != "p1:t1" {
			t.Errorf("expected addition p1:t1, got %v", library.AddCalls)
		}
		if result.GenreDistribution["House"] != 1 {
			t.Errorf("unexpected distribution: %v", result.GenreDistribution)
		}
	})

	t.Run("Membership Re-Check Prevents Duplicate Add", func(t *testing.T) {
		a := &tu.MockProvider{ProviderName: "a", Payload: housePayload("a")}
		b := &tu.MockProvider{ProviderName: "b", Payload: housePayload("b")}
		library := &tu.MockLibrary{
			TrackList: []services.Track{{ID: "t1", Title: "Song", Artist: "Artist"}},
			PlaylistList: []services.Playlist{
				{ID: "p1", Name: "House Essentials", Genre: "House"},
			},
			Members: map[string][]string{"p1": {"t1"}},
		}
		engine := newTestEngine(library, a, b)

		result, err := engine.Organize(ctx, nil, fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.PlaylistAdditions != 0 || len(library.AddCalls) != 0 {
			t.Errorf("expected no additions, got %v", library.AddCalls)
		}
	})

	t.Run("Dry Run Withholds All Writes", func(t *testing.T) {
		a := &tu.MockProvider{ProviderName: "a", Payload: housePayload("a")}
		b := &tu.MockProvider{ProviderName: "b", Payload: housePayload("b")}
		library := &tu.MockLibrary{
			TrackList: []services.Track{{ID: "t1", Title: "Song", Artist: "Artist"}},
			PlaylistList: []services.Playlist{
				{ID: "p1", Name: "House Essentials", Genre: "House"},
			},
		}
		engine := newTestEngine(library, a, b)

		opts := fastOpts()
		opts.DryRun = true
		result, err := engine.Organize(ctx, nil, opts)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(library.GenreWrites) != 0 || len(library.AddCalls) != 0 || library.MemberQueries != 0 {
			t.Error("expected no library writes or membership queries in dry run")
		}
		// Matching still runs so the report shows what would happen.
		if len(result.Details) != 1 || len(result.Details[0].MatchedPlaylists) != 1 {
			t.Errorf("expected matched playlists in dry-run detail, got %+v", result.Details)
		}
	})

	t.Run("No Evidence Skips Without Writes", func(t *testing.T) {
		library := &tu.MockLibrary{TrackList: []services.Track{
			{ID: "t1", Title: "Song", Artist: "Artist"},
		}}
		engine := newTestEngine(library)

		result, err := engine.Organize(ctx, nil, fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Skipped != 1 || len(library.GenreWrites) != 0 {
			t.Errorf("expected a no-evidence skip, got %+v", result)
		}

		detail := result.Details[0]
		if detail.Analysis == nil || detail.Analysis.PredictedGenre != genre.Unknown {
			t.Errorf("expected Unknown analysis, got %+v", detail.Analysis)
		}
	})

	t.Run("Write Failure Is Isolated", func(t *testing.T) {
		a := &tu.MockProvider{ProviderName: "a", Payload: housePayload("a")}
		b := &tu.MockProvider{ProviderName: "b", Payload: housePayload("b")}
		library := &tu.MockLibrary{
			TrackList: []services.Track{
				{ID: "t1", Title: "First", Artist: "Artist"},
				{ID: "t2", Title: "Second", Artist: "Artist"},
			},
			SetGenreErr: errors.New("rejected"),
		}
		engine := newTestEngine(library, a, b)

		result, err := engine.Organize(ctx, nil, fastOpts())
		if err != nil {
			t.Fatalf("expected the run to complete, got %v", err)
		}
		if result.Processed != 2 {
			t.Errorf("expected both tracks processed, got %d", result.Processed)
		}
		if result.Errors != 2 {
			t.Errorf("expected 2 errors, got %d", result.Errors)
		}
		if result.SuccessRate != 0.0 {
			t.Errorf("expected success rate 0, got %v", result.SuccessRate)
		}
	})

	t.Run("Remix Counters", func(t *testing.T) {
		payload := &services.Payload{Source: "a", TrackTags: []string{"house"}}
		a := &tu.MockProvider{ProviderName: "a", Payload: payload}
		b := &tu.MockProvider{ProviderName: "b", Payload: &services.Payload{Source: "b", TrackTags: []string{"house"}}}
		library := &tu.MockLibrary{TrackList: []services.Track{
			{ID: "t1", Title: "Song (Extended Mix)", Artist: "Artist"},
		}}
		engine := newTestEngine(library, a, b)

		result, err := engine.Organize(ctx, nil, fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.RemixAnalysis.TotalRemixes != 1 {
			t.Errorf("expected 1 remix seen, got %d", result.RemixAnalysis.TotalRemixes)
		}
		// 0.8 * 0.8 = 0.64 falls below the threshold, so the remix is
		// skipped but still counted as successfully handled.
		if result.RemixAnalysis.ProcessedRemixes != 1 {
			t.Errorf("expected 1 remix processed, got %d", result.RemixAnalysis.ProcessedRemixes)
		}
		if result.Skipped != 1 {
			t.Errorf("expected the remix skipped on confidence, got %+v", result)
		}
	})

	t.Run("Cancelled Mid Run", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		library := &tu.MockLibrary{TrackList: []services.Track{
			{ID: "t1", Title: "Song", Artist: "Artist"},
		}}
		engine := newTestEngine(library)

		result, err := engine.Organize(cancelled, nil, fastOpts())
		if err == nil {
			t.Error("expected a context error")
		}
		if result == nil {
			t.Error("expected partial results on cancellation")
		}
	})

	t.Run("Progress Updates Are Non-Blocking", func(t *testing.T) {
		tracks := make([]services.Track, 5)
		for i := range tracks {
			tracks[i] = services.Track{ID: fmt.Sprintf("t%d", i), Title: "Song", Artist: "Artist"}
		}
		library := &tu.MockLibrary{TrackList: tracks}
		engine := newTestEngine(library)

		// Unbuffered channel with no reader: sends must be dropped, not
		// block the run.
		progress := make(chan ProgressUpdate)
		done := make(chan struct{})
		go func() {
			engine.Organize(ctx, progress, fastOpts())
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("run blocked on progress channel")
		}
	})
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("Reports Collection State", func(t *testing.T) {
		library := &tu.MockLibrary{
			TrackList: []services.Track{
				{ID: "t1", Title: "A", Artist: "X", Genre: "House", Confidence: 0.9},
				{ID: "t2", Title: "B", Artist: "X", Genre: "House", Confidence: 0.4},
				{ID: "t3", Title: "C", Artist: "Y"},
			},
			PlaylistList: []services.Playlist{
				{ID: "p1", Name: "House Essentials", Genre: "House"},
			},
		}
		engine := newTestEngine(library)

		report, err := engine.Analyze(ctx, nil, 0.7)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if report.TotalTracks != 3 || report.TotalPlaylists != 1 {
			t.Errorf("unexpected totals: %+v", report)
		}
		if report.TracksWithoutGenre != 1 {
			t.Errorf("expected 1 untagged track, got %d", report.TracksWithoutGenre)
		}
		if report.TracksWithLowConfidence != 1 {
			t.Errorf("expected 1 low-confidence track, got %d", report.TracksWithLowConfidence)
		}
		if report.GenreDistribution["House"] != 2 {
			t.Errorf("unexpected distribution: %v", report.GenreDistribution)
		}
		if len(report.Recommendations) == 0 {
			t.Error("expected recommendations")
		}
	})

	t.Run("Connectivity Failure", func(t *testing.T) {
		library := &tu.MockLibrary{HealthErr: errors.New("refused")}
		engine := newTestEngine(library)

		if _, err := engine.Analyze(ctx, nil, 0.7); !errors.Is(err, shared.ErrLibraryUnavailable) {
			t.Errorf("expected ErrLibraryUnavailable, got %v", err)
		}
	})
}
