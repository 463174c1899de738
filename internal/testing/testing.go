// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/mkbecker/genreflow/internal/services"
)

// MockLibrary is a configurable test double for [services.Library].
//
// Zero value behaves as an empty, healthy library. Hooks override individual
// calls; counters record write traffic for assertions.
type MockLibrary struct {
	HealthErr     error
	TrackList     []services.Track
	PlaylistList  []services.Playlist
	Members       map[string][]string // playlistID -> track ids
	SetGenreErr   error
	AddErr        error
	GenreWrites   map[string]string // trackID -> genre written
	AddCalls      []string          // "playlistID:trackID" in call order
	TracksCalls   int
	MemberQueries int
}

func (m *MockLibrary) HealthCheck(ctx context.Context) error {
	return m.HealthErr
}

func (m *MockLibrary) Tracks(ctx context.Context, limit, offset int) ([]services.Track, error) {
	m.TracksCalls++
	if offset >= len(m.TrackList) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.TrackList) {
		end = len(m.TrackList)
	}
	return m.TrackList[offset:end], nil
}

func (m *MockLibrary) AllTracks(ctx context.Context) ([]services.Track, error) {
	m.TracksCalls++
	return m.TrackList, nil
}

func (m *MockLibrary) Playlists(ctx context.Context) ([]services.Playlist, error) {
	return m.PlaylistList, nil
}

func (m *MockLibrary) SetTrackGenre(ctx context.Context, trackID, genre string) error {
	if m.SetGenreErr != nil {
		return m.SetGenreErr
	}
	if m.GenreWrites == nil {
		m.GenreWrites = make(map[string]string)
	}
	m.GenreWrites[trackID] = genre
	return nil
}

func (m *MockLibrary) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	m.MemberQueries++
	return m.Members[playlistID], nil
}

func (m *MockLibrary) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.AddCalls = append(m.AddCalls, playlistID+":"+trackID)
	if m.Members == nil {
		m.Members = make(map[string][]string)
	}
	m.Members[playlistID] = append(m.Members[playlistID], trackID)
	return nil
}

// MockProvider is a test double for [services.Provider] returning a fixed
// payload and counting lookups.
type MockProvider struct {
	ProviderName string
	Payload      *services.Payload
	Lookups      int
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) Lookup(ctx context.Context, artist, title string) *services.Payload {
	m.Lookups++
	return m.Payload
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
