package matching

import (
	"strings"
	"testing"

	"github.com/mkbecker/genreflow/internal/genre"
	"github.com/mkbecker/genreflow/internal/services"
)

func newTestMatcher() *Matcher {
	return NewMatcher(genre.DefaultSimilarity(), genre.DefaultSubGenres())
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestMatch(t *testing.T) {
	m := newTestMatcher()

	t.Run("Direct Genre Tag Match", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "Friday Set", Genre: "House"},
			{ID: "p2", Name: "Jazz Standards", Genre: "Jazz"},
		}

		ids := m.Match(genre.House, false, playlists)
		assertIDs(t, ids, []string{"p1"})
	})

	t.Run("Name Substring Match", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "Deep House Nights", Genre: ""},
		}

		// "Deep House Nights" contains "house".
		ids := m.Match(genre.House, false, playlists)
		assertIDs(t, ids, []string{"p1"})
	})

	t.Run("Synonym Normalization", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "Rollers", Genre: "dnb"},
		}

		ids := m.Match(genre.DrumAndBass, false, playlists)
		assertIDs(t, ids, []string{"p1"})
	})

	t.Run("Similar Genre Match", func(t *testing.T) {
		// Techno is adjacent to House in the default table.
		playlists := []services.Playlist{
			{ID: "p1", Name: "Warehouse Techno", Genre: "Techno"},
		}

		ids := m.Match(genre.House, false, playlists)
		assertIDs(t, ids, []string{"p1"})
	})

	t.Run("Remix Pass Requires Genre Agreement", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "Progressive Remixes", Genre: ""},
			{ID: "p2", Name: "Rock Remixes", Genre: "Rock"},
		}

		ids := m.Match(genre.Progressive, true, playlists)
		assertIDs(t, ids, []string{"p1"})
	})

	t.Run("Remix Pass Skipped For Originals", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "All Remixes", Genre: "House"},
		}

		// Matches via the genre tag only, but the playlist would also
		// qualify on the remix pass; either way it appears exactly once.
		ids := m.Match(genre.House, false, playlists)
		assertIDs(t, ids, []string{"p1"})
	})

	t.Run("Unknown Matches Nothing", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "Unknown Pleasures", Genre: "unknown"},
		}

		if ids := m.Match(genre.Unknown, true, playlists); ids != nil {
			t.Errorf("expected no matches for Unknown, got %v", ids)
		}
	})

	t.Run("Union Is Deduplicated In Snapshot Order", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "House Essentials", Genre: "House"},
			{ID: "p2", Name: "Techno Bunker", Genre: "Techno"},
			{ID: "p3", Name: "House Remixes", Genre: "House"},
		}

		ids := m.Match(genre.House, true, playlists)
		assertIDs(t, ids, []string{"p1", "p2", "p3"})
	})

	t.Run("Pure Function", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "House Essentials", Genre: "House"},
			{ID: "p2", Name: "Techno Bunker", Genre: "Techno"},
		}

		first := m.Match(genre.House, true, playlists)
		second := m.Match(genre.House, true, playlists)
		assertIDs(t, second, first)
	})

	// The extended-mix scenario: a Progressive prediction lands in the
	// "Progressive House" playlist, the progressive-tagged playlist, and
	// the progressive remix collection.
	t.Run("Progressive Remix Scenario", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "Progressive House", Genre: ""},
			{ID: "p2", Name: "Peak Time", Genre: "progressive"},
			{ID: "p3", Name: "Progressive Remixes", Genre: ""},
			{ID: "p4", Name: "Lo-fi Beats", Genre: "downtempo"},
		}

		ids := m.Match(genre.Progressive, true, playlists)
		assertIDs(t, ids, []string{"p1", "p2", "p3"})
	})
}

func TestPropose(t *testing.T) {
	m := newTestMatcher()

	t.Run("Ungrouped Genre", func(t *testing.T) {
		suggestions := m.Propose(genre.Trance, nil)

		joined := strings.Join(suggestions, "|")
		if !strings.Contains(joined, "Trance Music") {
			t.Errorf("expected a main collection suggestion, got %v", suggestions)
		}
		if !strings.Contains(joined, "Trance Remixes") {
			t.Errorf("expected a remix collection suggestion, got %v", suggestions)
		}
		if !strings.Contains(joined, "Uplifting Trance") {
			t.Errorf("expected sub-genre suggestions, got %v", suggestions)
		}
	})

	t.Run("Covered Genre Suggests Only Gaps", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "Trance Classics", Genre: "Trance"},
			{ID: "p2", Name: "Trance Remixes", Genre: "Trance"},
			{ID: "p3", Name: "Uplifting Trance", Genre: "Trance"},
		}

		suggestions := m.Propose(genre.Trance, playlists)
		for _, s := range suggestions {
			if s == "Trance Music" || s == "Trance Remixes" || s == "Uplifting Trance" {
				t.Errorf("did not expect covered suggestion %q", s)
			}
		}
	})

	t.Run("Unknown Proposes Nothing", func(t *testing.T) {
		if suggestions := m.Propose(genre.Unknown, nil); suggestions != nil {
			t.Errorf("expected no proposals for Unknown, got %v", suggestions)
		}
	})
}

func TestAudit(t *testing.T) {
	m := newTestMatcher()

	t.Run("Flags Inconsistent And Missing", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "p1", Name: "House Essentials", Genre: "House"},
			{ID: "p2", Name: "Late Night", Genre: "Techno"},
		}

		report := m.Audit(playlists)
		if report.TotalPlaylists != 2 {
			t.Errorf("expected 2 playlists, got %d", report.TotalPlaylists)
		}
		if report.GenreDistribution["house"] != 1 || report.GenreDistribution["techno"] != 1 {
			t.Errorf("unexpected distribution: %v", report.GenreDistribution)
		}
		if len(report.Inconsistent) != 1 || report.Inconsistent[0].Name != "Late Night" {
			t.Errorf("expected 'Late Night' flagged, got %v", report.Inconsistent)
		}

		missing := strings.Join(report.MissingGenres, "|")
		if !strings.Contains(missing, "trance") || !strings.Contains(missing, "ambient") {
			t.Errorf("expected trance and ambient missing, got %v", report.MissingGenres)
		}
		if len(report.Recommendations) != 2 {
			t.Errorf("expected 2 recommendations, got %v", report.Recommendations)
		}
	})

	t.Run("Empty Snapshot", func(t *testing.T) {
		report := m.Audit(nil)
		if report.TotalPlaylists != 0 {
			t.Errorf("expected 0 playlists, got %d", report.TotalPlaylists)
		}
		if len(report.MissingGenres) != len(commonGenres) {
			t.Errorf("expected all common genres missing, got %v", report.MissingGenres)
		}
	})
}
