// Last.fm implementation of [Provider], built on the audioscrobbler API
// client from shkh/lastfm-go.
package services

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/shkh/lastfm-go/lastfm"
)

// similarTrackLimit caps how many similar tracks feed the evidence pool.
const similarTrackLimit = 5

// LastfmService implements [Provider] for Last.fm.
//
// A track lookup fans out to track.getInfo, artist.getInfo and
// track.getSimilar; the latter two are enrichment only and their failures
// never void the lookup.
type LastfmService struct {
	api    *lastfm.Api
	logger *log.Logger
}

// NewLastfmService creates a Last.fm provider with the given API credentials.
func NewLastfmService(apiKey, apiSecret string, logger *log.Logger) *LastfmService {
	return &LastfmService{
		api:    lastfm.New(apiKey, apiSecret),
		logger: logger,
	}
}

func (s *LastfmService) Name() string {
	return "lastfm"
}

// Lookup queries Last.fm for the cleaned (artist, title) pair.
//
// Returns nil on any track-level failure; the underlying client is not
// context-aware, so cancellation is only observed between calls.
func (s *LastfmService) Lookup(ctx context.Context, artist, title string) *Payload {
	if ctx.Err() != nil {
		return nil
	}

	info, err := s.api.Track.GetInfo(lastfm.P{"artist": artist, "track": title})
	if err != nil || info.Name == "" {
		if err != nil {
			s.logger.Debug("lastfm track.getInfo failed", "artist", artist, "title", title, "err", err)
		}
		return nil
	}

	payload := &Payload{
		Source:       s.Name(),
		Title:        info.Name,
		Artist:       info.Artist.Name,
		HasPlayCount: info.PlayCount != "" && info.PlayCount != "0",
	}
	for _, tag := range info.TopTags {
		payload.TrackTags = append(payload.TrackTags, tag.Name)
	}

	if ctx.Err() != nil {
		return payload
	}

	if artistInfo, err := s.api.Artist.GetInfo(lastfm.P{"artist": artist}); err == nil && artistInfo.Name != "" {
		payload.HasArtistInfo = true
		for _, tag := range artistInfo.Tags {
			payload.ArtistTags = append(payload.ArtistTags, tag.Name)
		}
	} else if err != nil {
		s.logger.Debug("lastfm artist.getInfo failed", "artist", artist, "err", err)
	}

	if ctx.Err() != nil {
		return payload
	}

	if similar, err := s.api.Track.GetSimilar(lastfm.P{"artist": artist, "track": title, "limit": similarTrackLimit}); err == nil && len(similar.Tracks) > 0 {
		payload.HasSimilar = true
		// track.getSimilar carries no tags of its own; the similar-track
		// names are evidence of richness, not genre votes.
	} else if err != nil {
		s.logger.Debug("lastfm track.getSimilar failed", "artist", artist, "title", title, "err", err)
	}

	return payload
}
