// package analysis implements the per-track inference pipeline: evidence
// collection across metadata providers, and fusion of that evidence with
// optional audio classification into a single genre prediction.
package analysis

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/mkbecker/genreflow/internal/services"
	"github.com/mkbecker/genreflow/internal/shared"
)

// Bundle is the per-track evidence gathered from all providers.
//
// SourceConfidence is a deterministic function of how many providers answered
// and how rich each answer was, never of the genre content itself.
type Bundle struct {
	Artist string `json:"artist"` // cleaned query artist
	Title  string `json:"title"`  // cleaned query title

	Payloads []*services.Payload `json:"payloads"` // answering providers, in query order
	Tags     []string            `json:"tags"`     // pooled lowercase tags, first-seen order
	Sources  []string            `json:"sources"`  // names of providers that answered

	IsRemix          bool    `json:"isRemix"`
	SourceConfidence float64 `json:"sourceConfidence"`
}

// Cacher persists evidence bundles between runs, keyed by the normalized
// (artist, title) pair. A nil, nil return is a miss.
type Cacher interface {
	Get(ctx context.Context, key string) (*Bundle, error)
	Put(ctx context.Context, key string, bundle *Bundle) error
}

// Source-confidence ladder. Bonuses stack on the base and the total is
// capped at 1.0.
const (
	confidenceAllSources = 0.8
	confidenceOneSource  = 0.6

	bonusAnyTags    = 0.1
	bonusArtistInfo = 0.05
	bonusSimilar    = 0.05
	bonusPlayCount  = 0.05
)

// Collector queries metadata providers for one track and condenses their
// answers into an evidence [Bundle].
//
// Collect degrades provider failures to "no data for that provider"; the only
// errors it surfaces are cancellation and rate-limiter failures.
type Collector struct {
	providers []services.Provider
	limiter   *rate.Limiter
	cache     Cacher // optional
	keywords  []string
	logger    *log.Logger
}

// NewCollector creates an evidence collector. limiter paces provider calls
// and may be nil; cache may be nil to disable evidence reuse; keywords is the
// remix keyword list, matched case-insensitively.
func NewCollector(providers []services.Provider, limiter *rate.Limiter, cache Cacher, keywords []string, logger *log.Logger) *Collector {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}

	return &Collector{
		providers: providers,
		limiter:   limiter,
		cache:     cache,
		keywords:  lowered,
		logger:    logger,
	}
}

// Collect gathers evidence for one track from every configured provider.
//
// The cleaned (artist, title) pair is used both for the provider queries and
// for the cache key, so retries of the same logical track hit the cache
// regardless of filename noise.
func (c *Collector) Collect(ctx context.Context, track services.Track) (*Bundle, error) {
	cleanTitle := shared.CleanTitle(track.Title)
	cleanArtist := shared.CleanArtist(track.Artist)
	key := shared.NormalizeKey(cleanArtist, cleanTitle)

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("evidence cache read failed", "key", key, "err", err)
		} else if cached != nil {
			c.logger.Debug("evidence cache hit", "artist", cleanArtist, "title", cleanTitle)
			return cached, nil
		}
	}

	bundle := &Bundle{
		Artist: cleanArtist,
		Title:  cleanTitle,
	}

	for _, provider := range c.providers {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		payload := provider.Lookup(ctx, cleanArtist, cleanTitle)
		if payload == nil {
			c.logger.Debug("provider returned no data", "provider", provider.Name(), "artist", cleanArtist, "title", cleanTitle)
			continue
		}

		bundle.Payloads = append(bundle.Payloads, payload)
		bundle.Sources = append(bundle.Sources, payload.Source)
	}

	bundle.Tags = poolTags(bundle.Payloads)
	bundle.IsRemix = c.detectRemix(track, bundle.Payloads)
	bundle.SourceConfidence = sourceConfidence(bundle)

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, bundle); err != nil {
			c.logger.Warn("evidence cache write failed", "key", key, "err", err)
		}
	}

	return bundle, nil
}

// poolTags flattens every payload's tag fields into one lowercase list,
// deduplicated in first-seen order. The order is deterministic because each
// payload already emits its fields in a fixed sequence and payloads are
// visited in query order.
func poolTags(payloads []*services.Payload) []string {
	var pooled []string
	seen := make(map[string]struct{})

	for _, payload := range payloads {
		for _, tag := range payload.Tags() {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			pooled = append(pooled, tag)
		}
	}

	return pooled
}

// detectRemix scans the track's own title and artist plus every provider's
// reported title and artist for remix keywords. A single hit anywhere marks
// the track as a remix; nothing can unset it.
func (c *Collector) detectRemix(track services.Track, payloads []*services.Payload) bool {
	if c.containsKeyword(track.Title) || c.containsKeyword(track.Artist) {
		return true
	}
	for _, payload := range payloads {
		if c.containsKeyword(payload.Title) || c.containsKeyword(payload.Artist) {
			return true
		}
	}
	return false
}

func (c *Collector) containsKeyword(s string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	for _, keyword := range c.keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

// sourceConfidence applies the richness ladder to an assembled bundle.
func sourceConfidence(bundle *Bundle) float64 {
	var confidence float64
	switch {
	case len(bundle.Payloads) >= 2:
		confidence = confidenceAllSources
	case len(bundle.Payloads) == 1:
		confidence = confidenceOneSource
	default:
		return 0.0
	}

	if len(bundle.Tags) > 0 {
		confidence += bonusAnyTags
	}

	var hasArtistInfo, hasSimilar, hasPlayCount bool
	for _, payload := range bundle.Payloads {
		hasArtistInfo = hasArtistInfo || payload.HasArtistInfo
		hasSimilar = hasSimilar || payload.HasSimilar
		hasPlayCount = hasPlayCount || payload.HasPlayCount
	}
	if hasArtistInfo {
		confidence += bonusArtistInfo
	}
	if hasSimilar {
		confidence += bonusSimilar
	}
	if hasPlayCount {
		confidence += bonusPlayCount
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
