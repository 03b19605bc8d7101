// Package forecast wires the predictor, trajectory builders and analyzers
// into the full 24-hour forecasting pipeline.
package forecast

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ocutrend/iopcast/internal/analyze"
	"github.com/ocutrend/iopcast/internal/corpus"
	"github.com/ocutrend/iopcast/internal/features"
	"github.com/ocutrend/iopcast/internal/predictor"
	"github.com/ocutrend/iopcast/internal/risk"
	"github.com/ocutrend/iopcast/internal/trajectory"
	"github.com/ocutrend/iopcast/models"
)

// Strategy selects which of the two forecast pipelines an engine runs. The
// strategies carry historically divergent thresholds and clamp ranges and
// must never be blended.
type Strategy string

const (
	// StrategyCircadianAdjust expands one base prediction with the
	// deterministic circadian/patient-factor formula.
	StrategyCircadianAdjust Strategy = "circadian_adjust"
	// StrategyHourlyRegression re-runs the regression model per hour.
	StrategyHourlyRegression Strategy = "hourly_regression"
)

// NoiseSigma is the per-hour Gaussian noise applied by the adjustment
// strategy.
const NoiseSigma = 0.5

// Options configures an Engine.
type Options struct {
	Strategy   Strategy
	ModelPath  string // artifact location for the adjustment strategy
	CorpusSize int    // synthetic profiles for the regression strategy
	Seed       int64  // trajectory noise seed; 0 means wall clock
	NoiseSigma float64
}

// Engine owns the process-wide model artifact and runs forecasts against it.
// The artifact is initialised exactly once; after Init returns, concurrent
// Forecast calls are safe.
type Engine struct {
	opts      Options
	predictor *predictor.Predictor
	logger    zerolog.Logger

	initOnce sync.Once
	initErr  error

	mu  sync.Mutex // guards rng; math/rand.Rand is not goroutine-safe
	rng *rand.Rand
}

// New creates an engine. Call Init before the first Forecast.
func New(opts Options) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		opts:      opts,
		predictor: predictor.New(),
		logger:    log.With().Str("component", "forecast_engine").Str("strategy", string(opts.Strategy)).Logger(),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Init prepares the model artifact: the adjustment strategy loads the
// persisted model or falls back to the demo fit, the regression strategy
// trains on the synthetic corpus. Runs at most once; later calls return the
// first outcome.
func (e *Engine) Init() error {
	e.initOnce.Do(func() {
		switch e.opts.Strategy {
		case StrategyCircadianAdjust:
			e.initErr = e.initBaseModel()
		case StrategyHourlyRegression:
			e.initErr = e.initCorpusModel()
		default:
			e.initErr = fmt.Errorf("unknown strategy %q", e.opts.Strategy)
		}
	})
	return e.initErr
}

func (e *Engine) initBaseModel() error {
	if e.opts.ModelPath != "" {
		if _, err := os.Stat(e.opts.ModelPath); err == nil {
			if err := e.predictor.Load(e.opts.ModelPath); err != nil {
				return fmt.Errorf("loading model artifact: %w", err)
			}
			return nil
		}
	}

	e.logger.Warn().Str("path", e.opts.ModelPath).Msg("No persisted model found, training demo fallback")
	if err := e.predictor.FitDemo(features.BaseFeatureNames, corpus.DefaultSeed); err != nil {
		return fmt.Errorf("fitting demo model: %w", err)
	}
	if e.opts.ModelPath != "" {
		if err := e.predictor.Save(e.opts.ModelPath); err != nil {
			// Next start retrains; not worth failing init over.
			e.logger.Warn().Err(err).Msg("Could not persist demo model")
		}
	}
	return nil
}

func (e *Engine) initCorpusModel() error {
	examples := corpus.NewGenerator(e.opts.CorpusSize, corpus.DefaultSeed).Generate()
	if err := e.predictor.Fit(features.FeatureNames, examples, predictor.SourceTrained); err != nil {
		return fmt.Errorf("fitting corpus model: %w", err)
	}
	return nil
}

// ModelSource reports the provenance of the active artifact.
func (e *Engine) ModelSource() predictor.ModelSource {
	return e.predictor.Source()
}

// Forecast runs the full pipeline for one profile. now anchors the adjusted
// trajectory's timestamps; the regression strategy ignores it and works in
// hours of day.
func (e *Engine) Forecast(profile models.PatientProfile, now time.Time) (*models.ForecastResult, error) {
	if err := e.Init(); err != nil {
		return nil, err
	}

	switch e.opts.Strategy {
	case StrategyCircadianAdjust:
		return e.forecastAdjusted(profile, now)
	case StrategyHourlyRegression:
		return e.forecastRegression(profile)
	default:
		return nil, fmt.Errorf("unknown strategy %q", e.opts.Strategy)
	}
}

func (e *Engine) forecastAdjusted(profile models.PatientProfile, now time.Time) (*models.ForecastResult, error) {
	base, err := e.predictor.Predict(features.BaseVector(profile))
	if err != nil {
		return nil, fmt.Errorf("base prediction: %w", err)
	}

	e.mu.Lock()
	points := trajectory.BuildAdjusted(base, profile, now, e.rng, e.opts.NoiseSigma)
	e.mu.Unlock()

	return &models.ForecastResult{
		Predictions:     points,
		OptimalDropTime: analyze.RisingEdgeDropTime(points),
		Analysis:        analyze.Pattern(points),
		Assessment:      risk.AssessAdjusted(points),
	}, nil
}

func (e *Engine) forecastRegression(profile models.PatientProfile) (*models.ForecastResult, error) {
	points, err := trajectory.BuildRegression(e.predictor, profile)
	if err != nil {
		return nil, fmt.Errorf("hourly prediction sweep: %w", err)
	}

	return &models.ForecastResult{
		Predictions:     points,
		OptimalDropTime: analyze.PeakLeadDropTime(points),
		Analysis:        analyze.Pattern(points),
		Assessment:      risk.AssessRegression(points),
	}, nil
}
