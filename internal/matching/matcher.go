// package matching decides which playlists a track belongs in given its
// predicted genre, and audits playlist collections for genre consistency.
package matching

import (
	"fmt"
	"strings"

	"github.com/mkbecker/genreflow/internal/genre"
	"github.com/mkbecker/genreflow/internal/services"
)

// remixPlaylistKeywords marks playlists that collect alternate versions.
// Narrower than the evidence-side remix keyword list on purpose: playlist
// names are short and curated, so the long tail would over-match.
var remixPlaylistKeywords = []string{"remix", "edit", "version", "mix", "rework"}

// Matcher matches fused genre predictions against a playlist snapshot.
//
// Matching is pure: the same (genre, remix flag, snapshot) inputs always
// produce the same playlist set, and nothing is written here.
type Matcher struct {
	similarity genre.Similarity
	subGenres  genre.SubGenres
}

// NewMatcher creates a playlist matcher over the given adjacency and
// sub-genre tables.
func NewMatcher(similarity genre.Similarity, subGenres genre.SubGenres) *Matcher {
	return &Matcher{
		similarity: similarity,
		subGenres:  subGenres,
	}
}

// Match returns the ids of every playlist the track belongs in, as the union
// of three passes: direct genre matches, similar-genre matches, and (for
// remixes) remix-collection matches. Ids come back deduplicated in playlist
// snapshot order.
func (m *Matcher) Match(predicted genre.Genre, isRemix bool, playlists []services.Playlist) []string {
	if predicted == genre.Unknown {
		return nil
	}

	matched := make(map[string]struct{})

	m.matchGenre(predicted, playlists, matched)
	for _, neighbor := range m.similarity.Neighbors(predicted) {
		m.matchGenre(neighbor, playlists, matched)
	}
	if isRemix {
		m.matchRemix(predicted, playlists, matched)
	}

	var ids []string
	for _, playlist := range playlists {
		if _, ok := matched[playlist.ID]; ok {
			ids = append(ids, playlist.ID)
		}
	}
	return ids
}

// matchGenre adds playlists whose normalized genre equals the target, or
// whose display name contains the target's normalized name.
func (m *Matcher) matchGenre(target genre.Genre, playlists []services.Playlist, matched map[string]struct{}) {
	targetName := genre.NormalizeName(target.String())

	for _, playlist := range playlists {
		if genre.NormalizeName(playlist.Genre) == targetName {
			matched[playlist.ID] = struct{}{}
			continue
		}
		if strings.Contains(strings.ToLower(playlist.Name), targetName) {
			matched[playlist.ID] = struct{}{}
		}
	}
}

// matchRemix adds remix-named playlists whose genre tag or name also agrees
// with the predicted genre.
func (m *Matcher) matchRemix(predicted genre.Genre, playlists []services.Playlist, matched map[string]struct{}) {
	predictedName := genre.NormalizeName(predicted.String())

	for _, playlist := range playlists {
		name := strings.ToLower(playlist.Name)

		isRemixPlaylist := false
		for _, keyword := range remixPlaylistKeywords {
			if strings.Contains(name, keyword) {
				isRemixPlaylist = true
				break
			}
		}
		if !isRemixPlaylist {
			continue
		}

		if genre.NormalizeName(playlist.Genre) == predictedName || strings.Contains(name, predictedName) {
			matched[playlist.ID] = struct{}{}
		}
	}
}

// Propose suggests new playlist names for a genre that the current snapshot
// leaves ungrouped: a main collection, a remix collection, and sub-genre
// splits not already covered by an existing playlist name.
func (m *Matcher) Propose(predicted genre.Genre, playlists []services.Playlist) []string {
	if predicted == genre.Unknown {
		return nil
	}

	var suggestions []string

	existingGenres := make(map[string]struct{}, len(playlists))
	hasRemixPlaylist := false
	for _, playlist := range playlists {
		existingGenres[genre.NormalizeName(playlist.Genre)] = struct{}{}
		if strings.Contains(strings.ToLower(playlist.Name), "remix") {
			hasRemixPlaylist = true
		}
	}

	if _, ok := existingGenres[genre.NormalizeName(predicted.String())]; !ok {
		suggestions = append(suggestions, fmt.Sprintf("%s Music", predicted))
	}
	if !hasRemixPlaylist {
		suggestions = append(suggestions, fmt.Sprintf("%s Remixes", predicted))
	}

	for _, subGenre := range m.subGenres[predicted] {
		covered := false
		for _, playlist := range playlists {
			if strings.Contains(strings.ToLower(playlist.Name), strings.ToLower(subGenre)) {
				covered = true
				break
			}
		}
		if !covered {
			suggestions = append(suggestions, subGenre)
		}
	}

	return suggestions
}

// InconsistentPlaylist flags a playlist whose genre tag disagrees with its
// display name.
type InconsistentPlaylist struct {
	Name  string `json:"name"`
	Genre string `json:"genre"`
	Issue string `json:"issue"`
}

// ConsistencyReport summarizes a playlist audit.
type ConsistencyReport struct {
	TotalPlaylists    int                    `json:"totalPlaylists"`
	GenreDistribution map[string]int         `json:"genreDistribution"`
	Inconsistent      []InconsistentPlaylist `json:"inconsistentPlaylists,omitempty"`
	MissingGenres     []string               `json:"missingGenres,omitempty"`
	Recommendations   []string               `json:"recommendations,omitempty"`
}

// commonGenres is the baseline every electronic collection is expected to
// cover; absences show up as recommendations.
var commonGenres = []string{"house", "techno", "trance", "dubstep", "drum & bass", "ambient"}

// Audit checks a playlist snapshot for genre-tag consistency and coverage.
func (m *Matcher) Audit(playlists []services.Playlist) ConsistencyReport {
	report := ConsistencyReport{
		TotalPlaylists:    len(playlists),
		GenreDistribution: make(map[string]int),
	}

	for _, playlist := range playlists {
		normalized := genre.NormalizeName(playlist.Genre)
		report.GenreDistribution[normalized]++

		if normalized != "" && !strings.Contains(strings.ToLower(playlist.Name), normalized) {
			report.Inconsistent = append(report.Inconsistent, InconsistentPlaylist{
				Name:  playlist.Name,
				Genre: playlist.Genre,
				Issue: "Genre tag does not match playlist name",
			})
		}
	}

	for _, common := range commonGenres {
		if report.GenreDistribution[common] == 0 {
			report.MissingGenres = append(report.MissingGenres, common)
		}
	}

	if len(report.MissingGenres) > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("Consider creating playlists for missing genres: %s", strings.Join(report.MissingGenres, ", ")))
	}
	if len(report.Inconsistent) > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("Review %d playlists with inconsistent genre tags", len(report.Inconsistent)))
	}

	return report
}
