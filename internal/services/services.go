// package services defines interfaces and clients for the external
// collaborators of the pipeline: the library manager HTTP API and the
// metadata providers (Last.fm, MusicBrainz).
package services

import (
	"context"
)

// Track represents a track in the library manager.
//
// Immutable for the duration of one pipeline pass except for Genre, which the
// library store owns and the pipeline may request be overwritten.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	Duration   int // seconds
	FilePath   string
	Genre      string  // current genre, may be empty
	BPM        float64
	Key        string
	Year       int
	Confidence float64 // previously recorded genre confidence, 0 if none
}

// Playlist represents a playlist in the library manager.
type Playlist struct {
	ID          string
	Name        string
	Genre       string // assigned genre label, free text, possibly empty
	TrackCount  int
	Description string
}

// Library is the read/write interface over the library manager.
//
// All mutation calls are idempotent from the caller's perspective; failures
// are surfaced per call and never retried here.
type Library interface {
	// HealthCheck verifies the library API is reachable.
	HealthCheck(ctx context.Context) error

	// Tracks retrieves one page of tracks.
	Tracks(ctx context.Context, limit, offset int) ([]Track, error)

	// AllTracks pages through the whole library.
	AllTracks(ctx context.Context) ([]Track, error)

	// Playlists retrieves all playlists.
	Playlists(ctx context.Context) ([]Playlist, error)

	// SetTrackGenre overwrites a track's genre.
	SetTrackGenre(ctx context.Context, trackID, genre string) error

	// PlaylistTrackIDs lists the track ids currently in a playlist.
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)

	// AddTrackToPlaylist appends a track to a playlist.
	AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error
}

// Payload is the canonical normalized shape of one provider's answer for a
// (artist, title) query. Provider response quirks (fields that are sometimes
// a single object, sometimes a list) are resolved at the provider boundary so
// downstream code only ever sees flat lists.
type Payload struct {
	Source string // provider name

	// Best-match identification as reported by the provider.
	Title  string
	Artist string

	// Tag-like fields, always flat lists of raw strings.
	TrackTags   []string
	ArtistTags  []string
	SimilarTags []string
	ReleaseTags []string

	// Richness indicators feeding the source-confidence ladder.
	HasArtistInfo bool
	HasSimilar    bool
	HasPlayCount  bool
}

// Tags returns every tag-like field flattened in a fixed order: track tags,
// artist tags, similar-track tags, release tags.
func (p *Payload) Tags() []string {
	if p == nil {
		return nil
	}
	tags := make([]string, 0, len(p.TrackTags)+len(p.ArtistTags)+len(p.SimilarTags)+len(p.ReleaseTags))
	tags = append(tags, p.TrackTags...)
	tags = append(tags, p.ArtistTags...)
	tags = append(tags, p.SimilarTags...)
	tags = append(tags, p.ReleaseTags...)
	return tags
}

// Provider is a best-effort metadata lookup service.
//
// Lookup never fails across this boundary: implementations collapse their own
// transient errors into a nil payload ("no data").
type Provider interface {
	// Name returns the provider name (e.g. "lastfm", "musicbrainz").
	Name() string

	// Lookup queries the provider for a cleaned (artist, title) pair.
	// Returns nil when the provider has nothing usable.
	Lookup(ctx context.Context, artist, title string) *Payload
}
