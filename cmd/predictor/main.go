// Command predictor is the one-shot forecaster: it reads a patient profile
// as JSON on stdin, runs the hourly-regression strategy, and writes the
// forecast as a single JSON line on stdout. Unlike the HTTP server it is
// strict: every profile field is required, and on failure it still emits a
// complete, schema-valid result with zeroed fields before exiting nonzero.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ocutrend/iopcast/internal/config"
	"github.com/ocutrend/iopcast/internal/forecast"
	"github.com/ocutrend/iopcast/models"
)

// request mirrors the upstream caller's camelCase field names. Pointers make
// absent fields detectable so they can be rejected instead of defaulted.
type request struct {
	Age              *float64 `json:"age"`
	SleepQuality     *float64 `json:"sleepQuality"`
	StressLevel      *float64 `json:"stressLevel"`
	PhysicalActivity *float64 `json:"physicalActivity"`
	SystolicBP       *float64 `json:"systolicBP"`
	DiastolicBP      *float64 `json:"diastolicBP"`
	DiabetesStatus   *string  `json:"diabetesStatus"`
	FamilyHistory    *string  `json:"familyHistory"`
	LastDropHours    *float64 `json:"lastDropHours"`
}

type point struct {
	Hour         int              `json:"hour"`
	PredictedIOP float64          `json:"predicted_iop"`
	RiskLevel    models.RiskLevel `json:"risk_level"`
}

type circadianAnalysis struct {
	PeakIOP    float64 `json:"peak_iop"`
	TroughIOP  float64 `json:"trough_iop"`
	AverageIOP float64 `json:"average_iop"`
}

type response struct {
	Error             string                `json:"error,omitempty"`
	Predictions       []point               `json:"predictions"`
	OptimalDropTime   string                `json:"optimal_drop_time"`
	CircadianAnalysis circadianAnalysis     `json:"circadian_analysis"`
	RiskAssessment    models.RiskAssessment `json:"risk_assessment"`
}

func main() {
	// stdout carries only the result line; all logging goes to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Errorf("loading configuration: %w", err))
	}

	profile, err := readProfile(os.Stdin)
	if err != nil {
		fail(err)
	}

	engine := forecast.New(forecast.Options{
		Strategy:   forecast.StrategyHourlyRegression,
		CorpusSize: cfg.CorpusSize,
		Seed:       cfg.ForecastSeed,
	})
	result, err := engine.Forecast(*profile, time.Now())
	if err != nil {
		fail(err)
	}

	points := make([]point, 0, len(result.Predictions))
	for _, p := range result.Predictions {
		points = append(points, point{Hour: p.Hour, PredictedIOP: p.PredictedIOP, RiskLevel: p.RiskLevel})
	}

	emit(response{
		Predictions:     points,
		OptimalDropTime: result.OptimalDropTime,
		CircadianAnalysis: circadianAnalysis{
			PeakIOP:    round1(result.Analysis.PeakIOP),
			TroughIOP:  round1(result.Analysis.TroughIOP),
			AverageIOP: round1(result.Analysis.AvgIOP),
		},
		RiskAssessment: result.Assessment,
	})
}

func readProfile(r io.Reader) (*models.PatientProfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}

	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing input JSON: %w", err)
	}

	missing := []string{}
	checkF := func(name string, v *float64) {
		if v == nil {
			missing = append(missing, name)
		}
	}
	checkS := func(name string, v *string) {
		if v == nil {
			missing = append(missing, name)
		}
	}
	checkF("age", req.Age)
	checkF("sleepQuality", req.SleepQuality)
	checkF("stressLevel", req.StressLevel)
	checkF("physicalActivity", req.PhysicalActivity)
	checkF("systolicBP", req.SystolicBP)
	checkF("diastolicBP", req.DiastolicBP)
	checkS("diabetesStatus", req.DiabetesStatus)
	checkS("familyHistory", req.FamilyHistory)
	checkF("lastDropHours", req.LastDropHours)
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %v", missing)
	}

	return &models.PatientProfile{
		Age:                *req.Age,
		SleepQuality:       *req.SleepQuality,
		StressLevel:        *req.StressLevel,
		PhysicalActivity:   *req.PhysicalActivity,
		SystolicBP:         *req.SystolicBP,
		DiastolicBP:        *req.DiastolicBP,
		DiabetesStatus:     *req.DiabetesStatus,
		FamilyHistory:      *req.FamilyHistory,
		HoursSinceLastDrop: *req.LastDropHours,
	}, nil
}

// fail emits the schema-valid zeroed payload with the error attached and
// exits nonzero. Downstream consumers always get a parseable object.
func fail(err error) {
	log.Error().Err(err).Msg("Forecast failed")
	emit(failureResponse(err))
	os.Exit(1)
}

// failureResponse keeps every field of the normal payload present:
// predictions marshals as [] rather than null and the assessment carries
// the unknown level.
func failureResponse(err error) response {
	return response{
		Error:       err.Error(),
		Predictions: []point{},
		RiskAssessment: models.RiskAssessment{
			Level:   models.RiskUnknown,
			Message: "Error in calculation",
		},
	}
}

func emit(resp response) {
	out, err := json.Marshal(resp)
	if err != nil {
		log.Fatal().Err(err).Msg("Encoding result failed")
	}
	fmt.Println(string(out))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
