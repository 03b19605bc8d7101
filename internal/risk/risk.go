// Package risk holds the threshold policies over predicted IOP values. The
// two forecast strategies evolved separate threshold sets (22 vs 21 for the
// high boundary) and separate hour-counting rules; they are kept side by side
// under their own names, never merged.
package risk

import (
	"fmt"
	"math"

	"github.com/ocutrend/iopcast/models"
)

// LevelAdjusted classifies an IOP value under the circadian-adjustment
// strategy's thresholds.
func LevelAdjusted(iop float64) models.RiskLevel {
	switch {
	case iop < 18:
		return models.RiskLow
	case iop < 22:
		return models.RiskModerate
	case iop < 26:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

// LevelRegression classifies an IOP value under the hourly-regression
// strategy's thresholds.
func LevelRegression(iop float64) models.RiskLevel {
	switch {
	case iop < 18:
		return models.RiskLow
	case iop < 21:
		return models.RiskModerate
	case iop < 26:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

// Recommendation maps a predicted value and wall-clock hour to the action
// shown next to each adjusted trajectory point.
func Recommendation(iop float64, hour int) string {
	switch {
	case iop > 25:
		return "Consider emergency consultation - very high pressure detected"
	case iop > 21:
		return "Administer drops and avoid stressful activities"
	case iop > 18:
		if hour >= 20 || hour <= 6 {
			return "Monitor through night - consider sleep position adjustment"
		}
		return "Normal pressure - maintain current regimen"
	default:
		return "Pressure well-controlled - continue current treatment"
	}
}

// AssessAdjusted aggregates per-hour values into the overall verdict for the
// circadian-adjustment strategy. Hours are counted strictly above 21 and 25.
func AssessAdjusted(points []models.TrajectoryPoint) models.RiskAssessment {
	highHours := 0
	criticalHours := 0
	for _, p := range points {
		if p.PredictedIOP > 21 {
			highHours++
		}
		if p.PredictedIOP > 25 {
			criticalHours++
		}
	}
	riskPercentage := float64(highHours) / float64(len(points)) * 100

	switch {
	case criticalHours > 0:
		return models.RiskAssessment{
			Level:          models.RiskCritical,
			Message:        fmt.Sprintf("Critical pressure predicted for %d hours - immediate attention recommended", criticalHours),
			RiskPercentage: riskPercentage,
		}
	case riskPercentage > 30:
		return models.RiskAssessment{
			Level:          models.RiskHigh,
			Message:        fmt.Sprintf("High pressure predicted for %d hours (%.1f%% of time) - treatment adjustment may be needed", highHours, riskPercentage),
			RiskPercentage: riskPercentage,
		}
	case riskPercentage > 10:
		return models.RiskAssessment{
			Level:          models.RiskModerate,
			Message:        fmt.Sprintf("Moderate elevation predicted for %d hours - monitor closely", highHours),
			RiskPercentage: riskPercentage,
		}
	default:
		return models.RiskAssessment{
			Level:          models.RiskLow,
			Message:        "Pressure well-controlled throughout prediction period",
			RiskPercentage: riskPercentage,
		}
	}
}

// AssessRegression aggregates per-hour values for the hourly-regression
// strategy. Hours at or above 21 count, and the percentage bands differ from
// the adjusted strategy.
func AssessRegression(points []models.TrajectoryPoint) models.RiskAssessment {
	highHours := 0
	for _, p := range points {
		if p.PredictedIOP >= 21 {
			highHours++
		}
	}
	riskPercentage := float64(highHours) / float64(len(points)) * 100

	var level models.RiskLevel
	var message string
	switch {
	case riskPercentage < 10:
		level = models.RiskLow
		message = "Current treatment appears to be working effectively. Continue current regimen."
	case riskPercentage < 25:
		level = models.RiskModerate
		message = "Elevated risk detected. Consider adjusting treatment schedule or medication."
	case riskPercentage < 50:
		level = models.RiskHigh
		message = "High risk of elevated IOP. Recommend immediate consultation with ophthalmologist."
	default:
		level = models.RiskCritical
		message = "Critical risk level. Emergency ophthalmology consultation required."
	}

	return models.RiskAssessment{
		Level:          level,
		Message:        message,
		RiskPercentage: round1(riskPercentage),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
