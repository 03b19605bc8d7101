// Package predictor wraps a fittable linear regression behind a feature
// scaler and owns the persisted model artifact.
package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sajari/regression"

	"github.com/ocutrend/iopcast/models"
)

// ModelSource records where the active artifact came from. The demo fallback
// is a deliberate degraded mode, surfaced to callers and logs rather than
// silently substituted.
type ModelSource string

const (
	SourceTrained      ModelSource = "trained_model"
	SourcePersisted    ModelSource = "persisted_model"
	SourceDemoFallback ModelSource = "demo_model"
)

// Artifact is a fitted model plus the scaling transform it was trained with.
type Artifact struct {
	FeatureNames []string    `json:"feature_names"`
	Intercept    float64     `json:"intercept"`
	Weights      []float64   `json:"weights"`
	Means        []float64   `json:"means"`
	Stds         []float64   `json:"stds"`
	R2           float64     `json:"r2"`
	TrainedAt    time.Time   `json:"trained_at"`
	Source       ModelSource `json:"source"`
}

// Predictor maps a feature vector to a scalar IOP estimate. The artifact is
// read-only once fitted; concurrent Predict calls are safe.
type Predictor struct {
	artifact *Artifact
	logger   zerolog.Logger
}

// New creates an unfitted predictor.
func New() *Predictor {
	return &Predictor{
		logger: log.With().Str("component", "predictor").Logger(),
	}
}

// Fit trains a regression model and feature scaler over the examples.
// Feature order must match names and stay consistent at inference.
func (p *Predictor) Fit(names []string, examples []models.TrainingExample, source ModelSource) error {
	if len(examples) == 0 {
		return fmt.Errorf("no training examples")
	}
	for i, ex := range examples {
		if len(ex.Features) != len(names) {
			return fmt.Errorf("example %d has %d features, want %d", i, len(ex.Features), len(names))
		}
	}

	means, stds := fitScaler(names, examples)

	var r regression.Regression
	r.SetObserved("iop")
	for i, name := range names {
		r.SetVar(i, name)
	}
	for _, ex := range examples {
		r.Train(regression.DataPoint(ex.Target, scale(ex.Features, means, stds)))
	}
	if err := r.Run(); err != nil {
		return fmt.Errorf("regression fit: %w", err)
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) != len(names)+1 {
		return fmt.Errorf("regression returned %d coefficients, want %d", len(coeffs), len(names)+1)
	}

	p.artifact = &Artifact{
		FeatureNames: names,
		Intercept:    coeffs[0],
		Weights:      coeffs[1:],
		Means:        means,
		Stds:         stds,
		R2:           r.R2,
		TrainedAt:    time.Now(),
		Source:       source,
	}

	p.logger.Info().
		Int("examples", len(examples)).
		Int("features", len(names)).
		Float64("r2", r.R2).
		Str("source", string(source)).
		Msg("Fitted regression model")
	return nil
}

// FitDemo trains the fallback model on random samples over plausible
// attribute ranges with targets in [15,25) mmHg. Used when no persisted
// artifact exists.
func (p *Predictor) FitDemo(names []string, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	examples := make([]models.TrainingExample, 0, 100)
	for i := 0; i < 100; i++ {
		row := make([]float64, len(names))
		for j, name := range names {
			switch name {
			case "age":
				row[j] = 20 + rng.Float64()*70
			case "last_drop_hours_ago", "hours_since_drop":
				row[j] = rng.Float64() * 48
			default:
				row[j] = 1 + rng.Float64()*9
			}
		}
		examples = append(examples, models.TrainingExample{
			Features: row,
			Target:   15 + rng.Float64()*10,
		})
	}

	return p.Fit(names, examples, SourceDemoFallback)
}

// Predict returns the IOP estimate for one feature vector.
func (p *Predictor) Predict(feats []float64) (float64, error) {
	a := p.artifact
	if a == nil {
		return 0, fmt.Errorf("model not fitted")
	}
	if len(feats) != len(a.Weights) {
		return 0, fmt.Errorf("got %d features, model expects %d", len(feats), len(a.Weights))
	}

	scaled := scale(feats, a.Means, a.Stds)
	y := a.Intercept
	for i, w := range a.Weights {
		y += w * scaled[i]
	}
	return y, nil
}

// Fitted reports whether an artifact is loaded.
func (p *Predictor) Fitted() bool { return p.artifact != nil }

// Source returns the provenance of the active artifact.
func (p *Predictor) Source() ModelSource {
	if p.artifact == nil {
		return ""
	}
	return p.artifact.Source
}

// Save persists the artifact as JSON.
func (p *Predictor) Save(path string) error {
	if p.artifact == nil {
		return fmt.Errorf("no artifact to save")
	}
	data, err := json.MarshalIndent(p.artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// Load restores a previously saved artifact and marks it persisted.
func (p *Predictor) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decoding artifact: %w", err)
	}
	if len(a.Weights) != len(a.FeatureNames) || len(a.Means) != len(a.FeatureNames) || len(a.Stds) != len(a.FeatureNames) {
		return fmt.Errorf("artifact dimensions inconsistent")
	}
	a.Source = SourcePersisted
	p.artifact = &a
	p.logger.Info().Str("path", path).Time("trained_at", a.TrainedAt).Msg("Loaded model artifact")
	return nil
}

func fitScaler(names []string, examples []models.TrainingExample) (means, stds []float64) {
	n := float64(len(examples))
	means = make([]float64, len(names))
	stds = make([]float64, len(names))

	for _, ex := range examples {
		for j, v := range ex.Features {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, ex := range examples {
		for j, v := range ex.Features {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	return means, stds
}

func scale(feats, means, stds []float64) []float64 {
	scaled := make([]float64, len(feats))
	for i, v := range feats {
		scaled[i] = (v - means[i]) / stds[i]
	}
	return scaled
}
