package analysis

import (
	"github.com/charmbracelet/log"

	"github.com/mkbecker/genreflow/internal/audio"
	"github.com/mkbecker/genreflow/internal/genre"
	"github.com/mkbecker/genreflow/internal/services"
)

// Method tags how a genre prediction was produced.
type Method string

const (
	// MethodAudioAnalysis means a trained classifier accepted the track's
	// audio features at or above the acceptance threshold.
	MethodAudioAnalysis Method = "audio_analysis"

	// MethodMetadataAnalysis means at least one pooled tag mapped onto the
	// canonical enumeration and voted.
	MethodMetadataAnalysis Method = "metadata_analysis"

	// MethodMetadataOnly means no usable votes existed; the prediction is
	// Unknown with zero confidence.
	MethodMetadataOnly Method = "metadata_only"
)

// Analysis is the fused genre prediction for one track.
//
// The vote and feature maps are carried for observability only; nothing
// downstream consumes them.
type Analysis struct {
	PredictedGenre genre.Genre `json:"predictedGenre"`
	Confidence     float64     `json:"confidence"`
	IsRemix        bool        `json:"isRemix"`
	Method         Method      `json:"analysisMethod"`

	SuggestedPlaylists []string `json:"suggestedPlaylists,omitempty"`

	MetadataVotes map[genre.Genre]int `json:"metadataVotes,omitempty"`
	AudioFeatures map[string]float64  `json:"audioFeatures,omitempty"`
}

// Extractor produces a fixed-shape feature vector from an audio file.
type Extractor interface {
	Extract(path string) (audio.FeatureVector, error)
}

// Classifier predicts a genre label plus probability from a feature vector.
type Classifier interface {
	Trained() bool
	Predict(features audio.FeatureVector) (genre.Genre, float64, error)
}

// Fuser merges evidence bundles, and optionally audio classification, into a
// single genre prediction.
//
// Audio wins only when the classifier is confident; otherwise the pooled
// metadata tags vote through the canonical genre table.
type Fuser struct {
	table       genre.Table
	suggestions genre.Suggestions
	extractor   Extractor  // optional
	classifier  Classifier // optional

	audioThreshold float64
	remixPenalty   float64

	logger *log.Logger
}

// FuserOpts configures a [Fuser]. Extractor and Classifier may be nil to
// disable the audio path.
type FuserOpts struct {
	Table       genre.Table
	Suggestions genre.Suggestions
	Extractor   Extractor
	Classifier  Classifier

	// AudioThreshold is the minimum classifier probability for the audio
	// prediction to be accepted. Defaults to 0.7.
	AudioThreshold float64

	// RemixPenalty scales metadata confidence for remixes. Defaults to 0.8.
	RemixPenalty float64
}

// NewFuser creates a genre fuser.
func NewFuser(opts FuserOpts, logger *log.Logger) *Fuser {
	if opts.AudioThreshold <= 0 {
		opts.AudioThreshold = 0.7
	}
	if opts.RemixPenalty <= 0 {
		opts.RemixPenalty = 0.8
	}

	return &Fuser{
		table:          opts.Table,
		suggestions:    opts.Suggestions,
		extractor:      opts.Extractor,
		classifier:     opts.Classifier,
		audioThreshold: opts.AudioThreshold,
		remixPenalty:   opts.RemixPenalty,
		logger:         logger,
	}
}

// Fuse produces the genre prediction for one track from its evidence bundle.
func (f *Fuser) Fuse(track services.Track, bundle *Bundle) Analysis {
	if analysis, ok := f.fuseAudio(track, bundle); ok {
		return analysis
	}
	return f.fuseMetadata(bundle)
}

// fuseAudio attempts the audio path. It reports false whenever audio is
// unavailable, the classifier is untrained, or the prediction falls below
// the acceptance threshold.
func (f *Fuser) fuseAudio(track services.Track, bundle *Bundle) (Analysis, bool) {
	if f.extractor == nil || f.classifier == nil || !f.classifier.Trained() || track.FilePath == "" {
		return Analysis{}, false
	}

	features, err := f.extractor.Extract(track.FilePath)
	if err != nil {
		f.logger.Debug("feature extraction failed", "path", track.FilePath, "err", err)
		return Analysis{}, false
	}

	predicted, probability, err := f.classifier.Predict(features)
	if err != nil {
		f.logger.Debug("classifier prediction failed", "path", track.FilePath, "err", err)
		return Analysis{}, false
	}
	if probability < f.audioThreshold {
		f.logger.Debug("audio prediction below threshold",
			"genre", predicted, "probability", probability, "threshold", f.audioThreshold)
		return Analysis{}, false
	}

	return Analysis{
		PredictedGenre:     predicted,
		Confidence:         clamp(probability),
		IsRemix:            bundle.IsRemix,
		Method:             MethodAudioAnalysis,
		SuggestedPlaylists: f.suggestions.For(predicted),
		AudioFeatures:      features.Summary(),
	}, true
}

// fuseMetadata runs the majority vote over the pooled tags.
//
// Confidence is the winning vote share weighted by how many providers
// answered; the remix penalty applies only on this path since audio evidence
// is version-agnostic.
func (f *Fuser) fuseMetadata(bundle *Bundle) Analysis {
	votes := make(map[genre.Genre]int)
	var order []genre.Genre

	for _, tag := range bundle.Tags {
		mapped := f.table.Canonical(tag)
		if mapped == genre.Unknown {
			continue
		}
		if votes[mapped] == 0 {
			order = append(order, mapped)
		}
		votes[mapped]++
	}

	if len(order) == 0 {
		return Analysis{
			PredictedGenre: genre.Unknown,
			Confidence:     0.0,
			IsRemix:        bundle.IsRemix,
			Method:         MethodMetadataOnly,
		}
	}

	// Strict greater-than over first-seen order breaks ties toward the
	// earliest-pooled genre.
	winner := order[0]
	total := 0
	for _, g := range order {
		if votes[g] > votes[winner] {
			winner = g
		}
	}
	for _, count := range votes {
		total += count
	}

	voteShare := float64(votes[winner]) / float64(total)
	confidence := voteShare * providerWeight(len(bundle.Sources))
	if bundle.IsRemix {
		confidence *= f.remixPenalty
	}

	return Analysis{
		PredictedGenre:     winner,
		Confidence:         clamp(confidence),
		IsRemix:            bundle.IsRemix,
		Method:             MethodMetadataAnalysis,
		SuggestedPlaylists: f.suggestions.For(winner),
		MetadataVotes:      votes,
	}
}

// providerWeight is the base rung of the source ladder, without richness
// bonuses. The bonus-adjusted figure stays on the bundle as an auxiliary
// signal and never feeds the fused confidence.
func providerWeight(sources int) float64 {
	switch {
	case sources >= 2:
		return confidenceAllSources
	case sources == 1:
		return confidenceOneSource
	default:
		return 0.0
	}
}

func clamp(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
