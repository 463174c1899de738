// MusicBrainz implementation of [Provider] against the ws/2 JSON API.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mkbecker/genreflow/internal/shared"
)

const (
	musicbrainzBaseURL = "https://musicbrainz.org/ws/2"

	// recordingSearchLimit caps how many candidate recordings are scored
	// per lookup.
	recordingSearchLimit = 5

	// Candidate score = title similarity * titleWeight + artist
	// similarity * artistWeight; anything at or below matchFloor is
	// rejected as a non-match.
	titleWeight  = 0.4
	artistWeight = 0.6
	matchFloor   = 0.6
)

// TagList tolerates the three shapes MusicBrainz serializes tag fields in:
// absent, a single object, or a list of objects.
type TagList []struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (t *TagList) UnmarshalJSON(data []byte) error {
	type entry struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var list []entry
	if err := json.Unmarshal(data, &list); err == nil {
		*t = make(TagList, len(list))
		for i, e := range list {
			(*t)[i] = struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			}(e)
		}
		return nil
	}

	var single entry
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("tag list is neither object nor array: %w", err)
	}
	*t = TagList{single}
	return nil
}

// Names returns the tag names in serialized order.
func (t TagList) Names() []string {
	if len(t) == 0 {
		return nil
	}
	names := make([]string, 0, len(t))
	for _, tag := range t {
		names = append(names, tag.Name)
	}
	return names
}

type artistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
}

// Phrase joins a multi-artist credit into the display string MusicBrainz
// calls the artist-credit phrase ("A feat. B").
func creditPhrase(credits []artistCredit) string {
	var b strings.Builder
	for _, c := range credits {
		b.WriteString(c.Name)
		b.WriteString(c.JoinPhrase)
	}
	return b.String()
}

type mbRecording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	Tags         TagList        `json:"tags"`
	Releases     []struct {
		Title        string `json:"title"`
		ReleaseGroup struct {
			PrimaryType string  `json:"primary-type"`
			Tags        TagList `json:"tags"`
		} `json:"release-group"`
	} `json:"releases"`
}

type mbSearchResponse struct {
	Count      int           `json:"count"`
	Recordings []mbRecording `json:"recordings"`
}

// MusicBrainzService implements [Provider] over the MusicBrainz ws/2 API.
//
// MusicBrainz search is fuzzy, so the raw candidate list is re-scored here
// and only a sufficiently close recording is reported as a match.
type MusicBrainzService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger
}

// NewMusicBrainzService creates a MusicBrainz provider. The user agent is
// mandatory per the MusicBrainz API terms.
func NewMusicBrainzService(userAgent string, client *http.Client, logger *log.Logger) *MusicBrainzService {
	if client == nil {
		client = http.DefaultClient
	}
	return &MusicBrainzService{
		baseURL:    musicbrainzBaseURL,
		userAgent:  userAgent,
		httpClient: client,
		logger:     logger,
	}
}

func (s *MusicBrainzService) Name() string {
	return "musicbrainz"
}

// Lookup searches recordings for the cleaned (artist, title) pair and
// returns the best-scoring candidate, or nil when nothing clears the floor.
func (s *MusicBrainzService) Lookup(ctx context.Context, artist, title string) *Payload {
	recordings, err := s.searchRecordings(ctx, artist, title)
	if err != nil {
		s.logger.Debug("musicbrainz search failed", "artist", artist, "title", title, "err", err)
		return nil
	}

	best := bestRecording(artist, title, recordings)
	if best == nil {
		return nil
	}

	payload := &Payload{
		Source:    s.Name(),
		Title:     best.Title,
		Artist:    creditPhrase(best.ArtistCredit),
		TrackTags: best.Tags.Names(),
	}
	for _, release := range best.Releases {
		payload.ReleaseTags = append(payload.ReleaseTags, release.ReleaseGroup.Tags.Names()...)
	}

	return payload
}

func (s *MusicBrainzService) searchRecordings(ctx context.Context, artist, title string) ([]mbRecording, error) {
	query := fmt.Sprintf(`recording:%q AND artist:%q`, title, artist)
	apiURL := fmt.Sprintf("%s/recording?%s", s.baseURL, url.Values{
		"query": {query},
		"limit": {fmt.Sprint(recordingSearchLimit)},
		"fmt":   {"json"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: recording search: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var response mbSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return response.Recordings, nil
}

// bestRecording scores each candidate against the query pair and returns the
// highest scorer above the match floor, or nil.
func bestRecording(artist, title string, recordings []mbRecording) *mbRecording {
	cleanTitle := shared.CleanTitle(title)
	cleanArtist := shared.CleanArtist(artist)

	var best *mbRecording
	bestScore := 0.0

	for i := range recordings {
		candidate := &recordings[i]
		titleScore := shared.Similarity(cleanTitle, shared.CleanTitle(candidate.Title))
		artistScore := shared.Similarity(cleanArtist, shared.CleanArtist(creditPhrase(candidate.ArtistCredit)))

		score := titleScore*titleWeight + artistScore*artistWeight
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	if bestScore <= matchFloor {
		return nil
	}
	return best
}
