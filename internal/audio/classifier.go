package audio

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mkbecker/genreflow/internal/genre"
	"github.com/mkbecker/genreflow/internal/shared"
)

// Sample is one labeled training example.
type Sample struct {
	Features FeatureVector
	Label    genre.Genre
}

// CentroidClassifier predicts genres by nearest centroid over standardized
// feature vectors.
//
// Training standardizes every dimension to zero mean and unit variance, then
// averages each label's vectors into a centroid. Prediction standardizes the
// query with the stored moments and reports a softmax over negative centroid
// distances as the probability.
type CentroidClassifier struct {
	labels    []genre.Genre
	centroids [][]float64
	mean      []float64
	std       []float64
	trained   bool

	logger *log.Logger
}

// NewCentroidClassifier creates an untrained classifier.
func NewCentroidClassifier(logger *log.Logger) *CentroidClassifier {
	return &CentroidClassifier{logger: logger}
}

// Trained reports whether the classifier holds a usable model.
func (c *CentroidClassifier) Trained() bool {
	return c.trained
}

// Train fits the classifier on the given samples. Samples whose vectors do
// not match the first sample's length are rejected.
func (c *CentroidClassifier) Train(samples []Sample) error {
	if len(samples) == 0 {
		return shared.ErrNoTrainingData
	}

	dims := len(samples[0].Features)
	if dims == 0 {
		return fmt.Errorf("%w: empty feature vectors", shared.ErrNoTrainingData)
	}
	for _, s := range samples {
		if len(s.Features) != dims {
			return fmt.Errorf("%w: inconsistent feature vector length %d (want %d)", shared.ErrInvalidInput, len(s.Features), dims)
		}
	}

	mean := make([]float64, dims)
	std := make([]float64, dims)
	column := make([]float64, len(samples))
	for d := 0; d < dims; d++ {
		for i, s := range samples {
			column[i] = s.Features[d]
		}
		m, sd := stat.MeanStdDev(column, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		mean[d] = m
		std[d] = sd
	}

	sums := make(map[genre.Genre][]float64)
	counts := make(map[genre.Genre]int)
	var labels []genre.Genre
	for _, s := range samples {
		if _, ok := sums[s.Label]; !ok {
			sums[s.Label] = make([]float64, dims)
			labels = append(labels, s.Label)
		}
		sum := sums[s.Label]
		for d, value := range s.Features {
			sum[d] += (value - mean[d]) / std[d]
		}
		counts[s.Label]++
	}

	centroids := make([][]float64, len(labels))
	for i, label := range labels {
		centroid := sums[label]
		floats.Scale(1/float64(counts[label]), centroid)
		centroids[i] = centroid
	}

	c.labels = labels
	c.centroids = centroids
	c.mean = mean
	c.std = std
	c.trained = true

	c.logger.Info("classifier trained", "samples", len(samples), "labels", len(labels), "dimensions", dims)
	return nil
}

// Predict returns the nearest-centroid label and its softmax probability.
func (c *CentroidClassifier) Predict(features FeatureVector) (genre.Genre, float64, error) {
	if !c.trained {
		return genre.Unknown, 0.0, shared.ErrNotTrained
	}
	if len(features) != len(c.mean) {
		return genre.Unknown, 0.0, fmt.Errorf("%w: feature vector length %d (want %d)", shared.ErrInvalidInput, len(features), len(c.mean))
	}

	query := make([]float64, len(features))
	for d, value := range features {
		query[d] = (value - c.mean[d]) / c.std[d]
	}

	distances := make([]float64, len(c.centroids))
	best := 0
	for i, centroid := range c.centroids {
		distances[i] = floats.Distance(query, centroid, 2)
		if distances[i] < distances[best] {
			best = i
		}
	}

	// Softmax over negative distances, shifted by the minimum for
	// numerical stability.
	var total float64
	for _, d := range distances {
		total += math.Exp(distances[best] - d)
	}
	probability := 1 / total

	return c.labels[best], probability, nil
}

// model is the gob-persisted form of a trained classifier. The artifact is an
// opaque, versionless contract between Save and Load.
type model struct {
	Labels    []genre.Genre
	Centroids [][]float64
	Mean      []float64
	Std       []float64
}

// Save writes the trained model to path.
func (c *CentroidClassifier) Save(path string) error {
	if !c.trained {
		return shared.ErrNotTrained
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	m := model{
		Labels:    c.labels,
		Centroids: c.centroids,
		Mean:      c.mean,
		Std:       c.std,
	}
	if err := gob.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	c.logger.Info("classifier model saved", "path", path, "labels", len(c.labels))
	return nil
}

// Load reads a trained model from path.
func (c *CentroidClassifier) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", shared.ErrModelNotFound, path)
		}
		return fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	var m model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}

	c.labels = m.Labels
	c.centroids = m.Centroids
	c.mean = m.Mean
	c.std = m.Std
	c.trained = true

	c.logger.Info("classifier model loaded", "path", path, "labels", len(c.labels))
	return nil
}
