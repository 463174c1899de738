// HTTP client for the library manager API.
//
// The library manager exposes a small local JSON API over the user's track
// and playlist collection; this client implements [Library] against it.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/mkbecker/genreflow/internal/shared"
)

const defaultLibraryURL = "http://localhost:48624"

// LibraryService implements [Library] over the library manager's HTTP API.
type LibraryService struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

// NewLibraryService creates a library API client.
func NewLibraryService(baseURL, apiVersion string, client *http.Client) *LibraryService {
	if baseURL == "" {
		baseURL = defaultLibraryURL
	}
	if apiVersion == "" {
		apiVersion = "v1"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &LibraryService{
		baseURL:    baseURL,
		apiVersion: apiVersion,
		httpClient: client,
	}
}

type libraryTrack struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Album           string  `json:"album"`
	Duration        int     `json:"duration"`
	FilePath        string  `json:"filePath"`
	Genre           string  `json:"genre"`
	BPM             float64 `json:"bpm"`
	Key             string  `json:"key"`
	Year            int     `json:"year"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

type libraryPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Genre       string `json:"genre"`
	TrackCount  int    `json:"trackCount"`
	Description string `json:"description"`
}

// doRequest performs a JSON request against the versioned API and decodes the
// response into result when non-nil.
func (s *LibraryService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	apiURL := fmt.Sprintf("%s/%s/%s", s.baseURL, s.apiVersion, endpoint)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: status %d", shared.ErrAPIRequest, method, endpoint, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the library API is reachable.
func (s *LibraryService) HealthCheck(ctx context.Context) error {
	if err := s.doRequest(ctx, http.MethodGet, "status", nil, nil); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrLibraryUnavailable, err)
	}
	return nil
}

// Tracks retrieves one page of tracks from the library.
func (s *LibraryService) Tracks(ctx context.Context, limit, offset int) ([]Track, error) {
	if limit <= 0 {
		limit = 100
	}

	endpoint := fmt.Sprintf("tracks?%s", url.Values{
		"limit":  {fmt.Sprint(limit)},
		"offset": {fmt.Sprint(offset)},
	}.Encode())

	var response struct {
		Tracks []libraryTrack `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(response.Tracks))
	for _, t := range response.Tracks {
		tracks = append(tracks, Track{
			ID:         t.ID,
			Title:      t.Title,
			Artist:     t.Artist,
			Album:      t.Album,
			Duration:   t.Duration,
			FilePath:   t.FilePath,
			Genre:      t.Genre,
			BPM:        t.BPM,
			Key:        t.Key,
			Year:       t.Year,
			Confidence: t.ConfidenceScore,
		})
	}

	return tracks, nil
}

// AllTracks pages through the whole library in fetch order.
func (s *LibraryService) AllTracks(ctx context.Context) ([]Track, error) {
	const pageSize = 100

	var all []Track
	offset := 0
	for {
		page, err := s.Tracks(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		offset += pageSize

		if len(page) < pageSize {
			break
		}
	}

	return all, nil
}

// Playlists retrieves all playlists.
func (s *LibraryService) Playlists(ctx context.Context) ([]Playlist, error) {
	var response struct {
		Playlists []libraryPlaylist `json:"playlists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "playlists", nil, &response); err != nil {
		return nil, err
	}

	playlists := make([]Playlist, 0, len(response.Playlists))
	for _, p := range response.Playlists {
		playlists = append(playlists, Playlist{
			ID:          p.ID,
			Name:        p.Name,
			Genre:       p.Genre,
			TrackCount:  p.TrackCount,
			Description: p.Description,
		})
	}

	return playlists, nil
}

// SetTrackGenre overwrites a track's genre tag.
func (s *LibraryService) SetTrackGenre(ctx context.Context, trackID, genre string) error {
	endpoint := fmt.Sprintf("tracks/%s", url.PathEscape(trackID))
	body := map[string]string{"genre": genre}
	if err := s.doRequest(ctx, http.MethodPut, endpoint, body, nil); err != nil {
		return fmt.Errorf("%w: genre update for track %s: %v", shared.ErrWriteRejected, trackID, err)
	}
	return nil
}

// PlaylistTrackIDs lists the track ids currently in a playlist.
func (s *LibraryService) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	endpoint := fmt.Sprintf("playlists/%s/tracks", url.PathEscape(playlistID))

	var response struct {
		Tracks []struct {
			ID string `json:"id"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(response.Tracks))
	for _, t := range response.Tracks {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// AddTrackToPlaylist appends a track to a playlist.
func (s *LibraryService) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	endpoint := fmt.Sprintf("playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string]string{"trackId": trackID}
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return fmt.Errorf("%w: playlist add %s -> %s: %v", shared.ErrWriteRejected, trackID, playlistID, err)
	}
	return nil
}
