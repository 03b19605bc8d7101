package features

import (
	"math"

	"github.com/ocutrend/iopcast/models"
)

// Circadian holds the time-of-day features derived from an hour in [0,23].
type Circadian struct {
	HourSin   float64
	HourCos   float64
	IsMorning float64
	IsEvening float64
	IsNight   float64
}

// CircadianFeatures encodes an hour of day into its circadian feature set.
func CircadianFeatures(hour int) Circadian {
	c := Circadian{
		HourSin: math.Sin(2 * math.Pi * float64(hour) / 24),
		HourCos: math.Cos(2 * math.Pi * float64(hour) / 24),
	}
	if hour >= 6 && hour <= 11 {
		c.IsMorning = 1
	}
	if hour >= 18 && hour <= 23 {
		c.IsEvening = 1
	}
	if hour >= 22 || hour <= 5 {
		c.IsNight = 1
	}
	return c
}

// DiabetesFactor maps a diabetes status onto its ordinal code. Unrecognised
// values fall back to 0 rather than failing.
func DiabetesFactor(status string) float64 {
	switch status {
	case "prediabetes":
		return 1
	case "type1", "type2":
		return 2
	default:
		return 0
	}
}

// FamilyFactor maps a family-history category onto its ordinal code.
// Unrecognised values fall back to 0 rather than failing.
func FamilyFactor(history string) float64 {
	switch history {
	case "parent", "sibling":
		return 1
	case "multiple":
		return 2
	default:
		return 0
	}
}

// FeatureNames is the fixed feature order shared by the corpus generator and
// the regression predictor. Training and inference must agree on it.
var FeatureNames = []string{
	"age", "sleep_quality", "stress_level", "physical_activity",
	"systolic_bp", "diastolic_bp", "diabetes_factor", "family_factor",
	"hours_since_drop", "hour_sin", "hour_cos",
	"is_morning", "is_evening", "is_night",
}

// Vector encodes a profile at a given hour into the full feature order.
// hoursSinceDrop is passed separately so callers can advance it hour by hour.
func Vector(p models.PatientProfile, hour int, hoursSinceDrop float64) []float64 {
	c := CircadianFeatures(hour)
	return []float64{
		p.Age, p.SleepQuality, p.StressLevel, p.PhysicalActivity,
		p.SystolicBP, p.DiastolicBP,
		DiabetesFactor(p.DiabetesStatus), FamilyFactor(p.FamilyHistory),
		hoursSinceDrop, c.HourSin, c.HourCos,
		c.IsMorning, c.IsEvening, c.IsNight,
	}
}

// BaseFeatureNames is the reduced feature order used by the base-prediction
// model behind the circadian-adjustment strategy.
var BaseFeatureNames = []string{
	"age", "sleep_quality", "stress_level", "physical_activity", "last_drop_hours_ago",
}

// BaseVector encodes a profile for the base-prediction model.
func BaseVector(p models.PatientProfile) []float64 {
	return []float64{
		p.Age, p.SleepQuality, p.StressLevel, p.PhysicalActivity, p.HoursSinceLastDrop,
	}
}
