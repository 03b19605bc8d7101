package trajectory

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ocutrend/iopcast/internal/corpus"
	"github.com/ocutrend/iopcast/internal/features"
	"github.com/ocutrend/iopcast/internal/predictor"
	"github.com/ocutrend/iopcast/internal/risk"
	"github.com/ocutrend/iopcast/models"
)

var defaultProfile = models.PatientProfile{
	Age:                50,
	SleepQuality:       7,
	StressLevel:        4,
	PhysicalActivity:   5,
	HoursSinceLastDrop: 24,
}

var midnight = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func TestBuildAdjustedShape(t *testing.T) {
	points := BuildAdjusted(18, defaultProfile, midnight, rand.New(rand.NewSource(1)), 0.5)

	if len(points) != 24 {
		t.Fatalf("got %d points, want 24", len(points))
	}
	seen := map[int]bool{}
	for i, p := range points {
		if p.PredictedIOP < 10 || p.PredictedIOP > 30 {
			t.Errorf("point %d value %.1f outside [10,30]", i, p.PredictedIOP)
		}
		if seen[p.Hour] {
			t.Errorf("duplicate hour %d", p.Hour)
		}
		seen[p.Hour] = true
		if p.RiskLevel != risk.LevelAdjusted(p.PredictedIOP) {
			t.Errorf("point %d risk %s inconsistent with value %.1f", i, p.RiskLevel, p.PredictedIOP)
		}
		if p.RecommendedAction == "" {
			t.Errorf("point %d has no recommendation", i)
		}
		if i > 0 && points[i].Time <= points[i-1].Time {
			t.Errorf("timestamps not strictly increasing at %d: %s then %s", i, points[i-1].Time, points[i].Time)
		}
	}
}

func TestBuildAdjustedCircadianShape(t *testing.T) {
	// Without noise the series is pure circadian: maximum at 14:00,
	// minimum at 02:00 for a midnight start.
	points := BuildAdjusted(18, defaultProfile, midnight, nil, 0)

	peak, trough := 0, 0
	for i, p := range points {
		if p.PredictedIOP > points[peak].PredictedIOP {
			peak = i
		}
		if p.PredictedIOP < points[trough].PredictedIOP {
			trough = i
		}
	}
	if points[peak].Hour != 14 {
		t.Errorf("peak at hour %d, want 14", points[peak].Hour)
	}
	if points[trough].Hour != 2 {
		t.Errorf("trough at hour %d, want 2", points[trough].Hour)
	}
}

func TestBuildAdjustedMedicationEffect(t *testing.T) {
	fresh := defaultProfile
	fresh.HoursSinceLastDrop = 1
	due := defaultProfile
	due.HoursSinceLastDrop = 23

	freshPts := BuildAdjusted(18, fresh, midnight, nil, 0)
	duePts := BuildAdjusted(18, due, midnight, nil, 0)

	if freshPts[0].PredictedIOP >= duePts[0].PredictedIOP {
		t.Errorf("freshly medicated hour-0 IOP %.1f not below nearly-due %.1f",
			freshPts[0].PredictedIOP, duePts[0].PredictedIOP)
	}

	// The drop term only applies inside the 12-hour efficacy window.
	border := defaultProfile
	border.HoursSinceLastDrop = 12
	borderPts := BuildAdjusted(18, border, midnight, nil, 0)
	if borderPts[0].PredictedIOP != duePts[0].PredictedIOP {
		t.Errorf("12h-old dose still lowering pressure: %.1f vs %.1f",
			borderPts[0].PredictedIOP, duePts[0].PredictedIOP)
	}
}

func TestBuildAdjustedClamps(t *testing.T) {
	high := BuildAdjusted(100, defaultProfile, midnight, nil, 0)
	low := BuildAdjusted(-100, defaultProfile, midnight, nil, 0)
	for i := range high {
		if high[i].PredictedIOP != 30 {
			t.Errorf("point %d = %.1f, want clamped 30", i, high[i].PredictedIOP)
		}
		if low[i].PredictedIOP != 10 {
			t.Errorf("point %d = %.1f, want clamped 10", i, low[i].PredictedIOP)
		}
	}
}

func TestBuildAdjustedSeededDeterminism(t *testing.T) {
	a := BuildAdjusted(18, defaultProfile, midnight, rand.New(rand.NewSource(9)), 0.5)
	b := BuildAdjusted(18, defaultProfile, midnight, rand.New(rand.NewSource(9)), 0.5)
	for i := range a {
		if a[i].PredictedIOP != b[i].PredictedIOP {
			t.Fatalf("point %d differs between identically seeded runs", i)
		}
	}
}

func fittedPredictor(t *testing.T) *predictor.Predictor {
	t.Helper()
	p := predictor.New()
	examples := corpus.NewGenerator(100, corpus.DefaultSeed).Generate()
	if err := p.Fit(features.FeatureNames, examples, predictor.SourceTrained); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return p
}

func TestBuildRegression(t *testing.T) {
	pred := fittedPredictor(t)

	profile := defaultProfile
	profile.SystolicBP = 130
	profile.DiastolicBP = 80
	profile.DiabetesStatus = "none"
	profile.FamilyHistory = "none"

	points, err := BuildRegression(pred, profile)
	if err != nil {
		t.Fatalf("BuildRegression: %v", err)
	}

	if len(points) != 24 {
		t.Fatalf("got %d points, want 24", len(points))
	}
	for i, p := range points {
		if p.Hour != i {
			t.Errorf("point %d hour = %d", i, p.Hour)
		}
		if p.PredictedIOP < 8 || p.PredictedIOP > 35 {
			t.Errorf("point %d value %.1f outside [8,35]", i, p.PredictedIOP)
		}
		if p.RiskLevel != risk.LevelRegression(p.PredictedIOP) {
			t.Errorf("point %d risk %s inconsistent with value %.1f", i, p.RiskLevel, p.PredictedIOP)
		}
		if p.RecommendedAction != "" {
			t.Errorf("point %d carries a recommendation; only the adjusted builder attaches them", i)
		}
	}

	// No per-call randomness: a second sweep is identical.
	again, err := BuildRegression(pred, profile)
	if err != nil {
		t.Fatalf("BuildRegression: %v", err)
	}
	for i := range points {
		if points[i].PredictedIOP != again[i].PredictedIOP {
			t.Fatalf("point %d differs between runs", i)
		}
	}
}

func TestBuildRegressionUnfitted(t *testing.T) {
	if _, err := BuildRegression(predictor.New(), defaultProfile); err == nil {
		t.Error("BuildRegression succeeded with an unfitted model")
	}
}
