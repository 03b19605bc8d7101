// Package analyze computes summary artifacts over a finished trajectory:
// the circadian pattern statistics and the optimal medication time.
package analyze

import (
	"fmt"

	"github.com/ocutrend/iopcast/models"
)

// Pattern summarises peak, trough, mean and amplitude over the 24 values.
// Peak and trough keep the first occurrence on ties. An empty trajectory
// yields the zero analysis.
func Pattern(points []models.TrajectoryPoint) models.PatternAnalysis {
	if len(points) == 0 {
		return models.PatternAnalysis{}
	}
	a := models.PatternAnalysis{
		PeakIOP:   points[0].PredictedIOP,
		TroughIOP: points[0].PredictedIOP,
	}

	sum := 0.0
	for i, p := range points {
		sum += p.PredictedIOP
		if p.PredictedIOP > a.PeakIOP {
			a.PeakIOP = p.PredictedIOP
			a.PeakTime = p.Time
			a.PeakHour = p.Hour
		}
		if p.PredictedIOP < a.TroughIOP {
			a.TroughIOP = p.PredictedIOP
			a.TroughTime = p.Time
			a.TroughHour = p.Hour
		}
		if i == 0 {
			a.PeakTime = p.Time
			a.PeakHour = p.Hour
			a.TroughTime = p.Time
			a.TroughHour = p.Hour
		}
	}

	a.AvgIOP = sum / float64(len(points))
	a.Amplitude = a.PeakIOP - a.TroughIOP
	return a
}

// RisingEdgeDropTime scans the trajectory for the first point, from the
// second onward, whose value exceeds 21 mmHg while rising relative to its
// predecessor. That is the moment drops should go in. Falls back to "08:00"
// when no such rise exists.
func RisingEdgeDropTime(points []models.TrajectoryPoint) string {
	const threshold = 21.0
	for i := 1; i < len(points); i++ {
		if points[i].PredictedIOP > threshold && points[i].PredictedIOP > points[i-1].PredictedIOP {
			return points[i].Time
		}
	}
	return "08:00"
}

// PeakLeadDropTime places the dose two hours ahead of the daily peak to
// cover drug onset, formatted as "Day 1 HH:00".
func PeakLeadDropTime(points []models.TrajectoryPoint) string {
	a := Pattern(points)
	optimalHour := (a.PeakHour - 2 + 24) % 24
	return fmt.Sprintf("Day 1 %02d:00", optimalHour)
}
