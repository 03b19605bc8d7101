package forecast

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/ocutrend/iopcast/internal/predictor"
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

func adjustEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	e := New(Options{
		Strategy:   StrategyCircadianAdjust,
		ModelPath:  filepath.Join(t.TempDir(), "model.json"),
		Seed:       seed,
		NoiseSigma: NoiseSigma,
	})
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return e
}

func regressionEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(Options{
		Strategy:   StrategyHourlyRegression,
		CorpusSize: 100, // smaller corpus keeps the fit quick
		Seed:       1,
	})
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return e
}

func TestAdjustedForecastStructure(t *testing.T) {
	e := adjustEngine(t, 1)
	if e.ModelSource() != predictor.SourceDemoFallback {
		t.Errorf("model source %q, want demo fallback on empty dir", e.ModelSource())
	}

	res, err := e.Forecast(defaultProfile, midnight)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if len(res.Predictions) != 24 {
		t.Fatalf("%d predictions, want 24", len(res.Predictions))
	}
	for i, p := range res.Predictions {
		if p.PredictedIOP < 10 || p.PredictedIOP > 30 {
			t.Errorf("point %d value %.1f outside [10,30]", i, p.PredictedIOP)
		}
		if i > 0 && res.Predictions[i].Time <= res.Predictions[i-1].Time {
			t.Errorf("timestamps not strictly increasing at %d", i)
		}
	}
	if res.OptimalDropTime == "" {
		t.Error("empty optimal drop time")
	}

	// Summary statistics must be reproducible from the returned trajectory.
	high := 0
	for _, p := range res.Predictions {
		if p.PredictedIOP > 21 {
			high++
		}
		if p.PredictedIOP > res.Analysis.PeakIOP || p.PredictedIOP < res.Analysis.TroughIOP {
			t.Errorf("value %.1f outside reported [trough, peak]", p.PredictedIOP)
		}
	}
	wantPct := float64(high) / float64(len(res.Predictions)) * 100
	if res.Assessment.RiskPercentage != wantPct {
		t.Errorf("risk_percentage = %v, want %v recomputed from trajectory", res.Assessment.RiskPercentage, wantPct)
	}
	if res.Analysis.Amplitude != res.Analysis.PeakIOP-res.Analysis.TroughIOP {
		t.Errorf("amplitude %v != peak-trough %v", res.Analysis.Amplitude, res.Analysis.PeakIOP-res.Analysis.TroughIOP)
	}
}

func TestAdjustedForecastSeededDeterminism(t *testing.T) {
	a, err := adjustEngine(t, 99).Forecast(defaultProfile, midnight)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	b, err := adjustEngine(t, 99).Forecast(defaultProfile, midnight)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	for i := range a.Predictions {
		if a.Predictions[i].PredictedIOP != b.Predictions[i].PredictedIOP {
			t.Fatalf("point %d differs between identically seeded engines", i)
		}
	}
	if a.OptimalDropTime != b.OptimalDropTime || a.Assessment != b.Assessment {
		t.Error("summary artifacts differ between identically seeded engines")
	}
}

func TestAdjustedForecastPersistsModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	opts := Options{Strategy: StrategyCircadianAdjust, ModelPath: path, Seed: 1, NoiseSigma: NoiseSigma}

	first := New(opts)
	if err := first.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if first.ModelSource() != predictor.SourceDemoFallback {
		t.Fatalf("first start source %q, want demo fallback", first.ModelSource())
	}

	second := New(opts)
	if err := second.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if second.ModelSource() != predictor.SourcePersisted {
		t.Errorf("second start source %q, want persisted", second.ModelSource())
	}
}

func TestRegressionForecastStructure(t *testing.T) {
	e := regressionEngine(t)
	if e.ModelSource() != predictor.SourceTrained {
		t.Errorf("model source %q, want trained", e.ModelSource())
	}

	res, err := e.Forecast(models.PatientProfile{
		Age: 65, SleepQuality: 4, StressLevel: 8, PhysicalActivity: 3,
		SystolicBP: 145, DiastolicBP: 90,
		DiabetesStatus: "type2", FamilyHistory: "parent",
		HoursSinceLastDrop: 30,
	}, midnight)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if len(res.Predictions) != 24 {
		t.Fatalf("%d predictions, want 24", len(res.Predictions))
	}
	for i, p := range res.Predictions {
		if p.Hour != i {
			t.Errorf("point %d hour = %d", i, p.Hour)
		}
		if p.PredictedIOP < 8 || p.PredictedIOP > 35 {
			t.Errorf("point %d value %.1f outside [8,35]", i, p.PredictedIOP)
		}
	}

	// Optimal time leads the reported peak by two hours.
	wantHour := (res.Analysis.PeakHour - 2 + 24) % 24
	var gotHour int
	if _, err := fmt.Sscanf(res.OptimalDropTime, "Day 1 %d:00", &gotHour); err != nil {
		t.Fatalf("unparseable optimal drop time %q", res.OptimalDropTime)
	}
	if gotHour != wantHour {
		t.Errorf("optimal hour %d, want %d (peak hour %d minus lead)", gotHour, wantHour, res.Analysis.PeakHour)
	}
}

func TestRegressionForecastDeterministic(t *testing.T) {
	// The corpus seed is fixed, so two engines agree with no per-call noise.
	a, err := regressionEngine(t).Forecast(defaultProfile, midnight)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	b, err := regressionEngine(t).Forecast(defaultProfile, midnight)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	for i := range a.Predictions {
		if a.Predictions[i].PredictedIOP != b.Predictions[i].PredictedIOP {
			t.Fatalf("point %d differs between engines", i)
		}
	}
}

func TestUnknownStrategy(t *testing.T) {
	e := New(Options{Strategy: "blended"})
	if err := e.Init(); err == nil {
		t.Error("Init accepted an unknown strategy")
	}
	if _, err := e.Forecast(defaultProfile, midnight); err == nil {
		t.Error("Forecast succeeded with an unknown strategy")
	}
}
