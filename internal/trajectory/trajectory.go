// Package trajectory builds the 24-point IOP forecast series. Two builders
// exist and are kept distinct: the circadian-adjustment form expands one base
// prediction with a deterministic time-of-day formula, while the
// hourly-regression form re-runs the fitted model once per hour. Their clamp
// ranges and downstream thresholds differ historically and are preserved
// as-is.
package trajectory

import (
	"math"
	"math/rand"
	"time"

	"github.com/ocutrend/iopcast/internal/features"
	"github.com/ocutrend/iopcast/internal/predictor"
	"github.com/ocutrend/iopcast/internal/risk"
	"github.com/ocutrend/iopcast/models"
)

// TimeLayout is the timestamp format attached to adjusted trajectory points.
const TimeLayout = "2006-01-02 15:04"

// BuildAdjusted expands a single base prediction into 24 hourly points by
// applying circadian and patient-factor adjustments. Gaussian noise with the
// given sigma is added per point; pass a nil rng or sigma 0 for a fully
// deterministic series. Values are rounded to one decimal and clamped to
// [10,30] mmHg.
func BuildAdjusted(base float64, p models.PatientProfile, start time.Time, rng *rand.Rand, sigma float64) []models.TrajectoryPoint {
	points := make([]models.TrajectoryPoint, 0, 24)

	for offset := 0; offset < 24; offset++ {
		at := start.Add(time.Duration(offset) * time.Hour)
		hour := at.Hour()

		circadianEffect := 4 * math.Sin((float64(hour)-8)*math.Pi/12)
		sleepEffect := (10 - p.SleepQuality) * 0.3
		stressEffect := p.StressLevel * 0.4
		activityEffect := -p.PhysicalActivity * 0.2

		medicationEffect := 0.0
		if p.HoursSinceLastDrop < 12 {
			medicationEffect = -3 * (12 - p.HoursSinceLastDrop) / 12
		}

		iop := base + circadianEffect + sleepEffect + stressEffect + activityEffect + medicationEffect
		if rng != nil && sigma > 0 {
			iop += rng.NormFloat64() * sigma
		}
		iop = math.Max(10, math.Min(30, round1(iop)))

		points = append(points, models.TrajectoryPoint{
			Time:              at.Format(TimeLayout),
			Hour:              hour,
			PredictedIOP:      iop,
			RiskLevel:         risk.LevelAdjusted(iop),
			RecommendedAction: risk.Recommendation(iop, hour),
		})
	}

	return points
}

// BuildRegression runs the fitted model once per hour of day, advancing
// hoursSinceLastDrop by one each step. Values are clamped to [8,35] mmHg and
// rounded to one decimal.
func BuildRegression(pred *predictor.Predictor, p models.PatientProfile) ([]models.TrajectoryPoint, error) {
	points := make([]models.TrajectoryPoint, 0, 24)
	hoursSinceDrop := p.HoursSinceLastDrop

	for hour := 0; hour < 24; hour++ {
		iop, err := pred.Predict(features.Vector(p, hour, hoursSinceDrop))
		if err != nil {
			return nil, err
		}
		iop = round1(math.Max(8, math.Min(35, iop)))

		points = append(points, models.TrajectoryPoint{
			Hour:         hour,
			PredictedIOP: iop,
			RiskLevel:    risk.LevelRegression(iop),
		})

		hoursSinceDrop++
	}

	return points, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
