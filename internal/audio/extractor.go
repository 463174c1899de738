// package audio provides the audio side of the pipeline: a feature vector
// contract, an extractor that reads precomputed feature sidecars, and a
// trainable centroid classifier over those features.
package audio

import (
	"encoding/json"
	"fmt"
	"os"
)

// FeatureVector is a fixed-shape numeric feature vector for one track, laid
// out in the order of [FeatureNames].
type FeatureVector []float64

// featureNames is the canonical feature schema: spectral shape, 13 MFCCs,
// 12 chroma bins, rhythm, 6 tonnetz dimensions, and the harmonic ratio.
var featureNames = buildFeatureNames()

func buildFeatureNames() []string {
	names := []string{
		"spectral_centroid",
		"spectral_rolloff",
		"spectral_bandwidth",
		"zero_crossing_rate",
	}
	for i := 0; i < 13; i++ {
		names = append(names, fmt.Sprintf("mfcc_%d", i))
	}
	for i := 0; i < 12; i++ {
		names = append(names, fmt.Sprintf("chroma_%d", i))
	}
	names = append(names, "tempo", "beat_strength")
	for i := 0; i < 6; i++ {
		names = append(names, fmt.Sprintf("tonnetz_%d", i))
	}
	return append(names, "harmonic_ratio")
}

// FeatureNames returns the canonical feature schema in vector order.
func FeatureNames() []string {
	names := make([]string, len(featureNames))
	copy(names, featureNames)
	return names
}

// Dimensions is the length of a well-formed feature vector.
func Dimensions() int {
	return len(featureNames)
}

// Summary maps the vector back onto its feature names for reporting. Vectors
// of unexpected length fall back to positional keys.
func (v FeatureVector) Summary() map[string]float64 {
	if len(v) == 0 {
		return nil
	}

	summary := make(map[string]float64, len(v))
	for i, value := range v {
		if len(v) == len(featureNames) {
			summary[featureNames[i]] = value
		} else {
			summary[fmt.Sprintf("f%02d", i)] = value
		}
	}
	return summary
}

// sidecarSuffix is appended to a track's file path to locate its features.
const sidecarSuffix = ".features.json"

// SidecarExtractor reads feature vectors from JSON sidecar files written by
// an external audio analyzer next to each track file.
//
// The sidecar is a flat name -> value object using the [FeatureNames] schema,
// optionally carrying the analyzer's sample rate for validation.
type SidecarExtractor struct {
	// SampleRate, when non-zero, must match the sidecar's recorded rate.
	SampleRate int
}

type sidecarFile struct {
	SampleRate int                `json:"sample_rate"`
	Features   map[string]float64 `json:"features"`
}

// Extract reads and validates the sidecar for the given audio file path.
func (e *SidecarExtractor) Extract(path string) (FeatureVector, error) {
	data, err := os.ReadFile(path + sidecarSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature sidecar: %w", err)
	}

	var sidecar sidecarFile
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("failed to parse feature sidecar: %w", err)
	}

	if e.SampleRate != 0 && sidecar.SampleRate != 0 && sidecar.SampleRate != e.SampleRate {
		return nil, fmt.Errorf("sidecar sample rate %d does not match configured %d", sidecar.SampleRate, e.SampleRate)
	}

	vector := make(FeatureVector, len(featureNames))
	for i, name := range featureNames {
		value, ok := sidecar.Features[name]
		if !ok {
			return nil, fmt.Errorf("feature sidecar missing %q", name)
		}
		vector[i] = value
	}

	return vector, nil
}
