// Package corpus synthesises the labelled training data the regression
// predictor is fitted on when no real dataset is available. The target
// formula is a documented approximation of published IOP behaviour, not a
// clinical model; it exists to bootstrap a plausible regressor.
package corpus

import (
	"math"
	"math/rand"

	"github.com/ocutrend/iopcast/internal/features"
	"github.com/ocutrend/iopcast/models"
)

// DefaultSize is the number of synthetic patient profiles per corpus.
const DefaultSize = 1000

// DefaultSeed keeps repeated generations byte-identical across processes.
const DefaultSeed = 42

// Generator produces a synthetic corpus of (feature vector, IOP) pairs.
type Generator struct {
	size int
	rng  *rand.Rand
}

// NewGenerator creates a generator for size patient profiles. size <= 0
// falls back to DefaultSize.
func NewGenerator(size int, seed int64) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{
		size: size,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Generate builds the corpus: one example per profile per hour of day,
// size*24 rows in feature order features.FeatureNames.
func (g *Generator) Generate() []models.TrainingExample {
	examples := make([]models.TrainingExample, 0, g.size*24)

	for i := 0; i < g.size; i++ {
		age := g.rng.NormFloat64()*15 + 60
		sleepQuality := float64(g.rng.Intn(10) + 1)
		stressLevel := float64(g.rng.Intn(10) + 1)
		physicalActivity := float64(g.rng.Intn(10) + 1)
		systolicBP := g.rng.NormFloat64()*20 + 130
		diastolicBP := g.rng.NormFloat64()*10 + 80
		diabetesFactor := float64(g.rng.Intn(3))
		familyFactor := float64(g.rng.Intn(3))
		hoursSinceDrop := g.rng.Float64() * 48

		for hour := 0; hour < 24; hour++ {
			c := features.CircadianFeatures(hour)

			baseIOP := 15 + 3*math.Sin((float64(hour)-6)*math.Pi/12)

			ageEffect := math.Max(0, (age-40)*0.1)
			sleepEffect := (10 - sleepQuality) * 0.3
			stressEffect := stressLevel * 0.2
			activityEffect := (10 - physicalActivity) * 0.15
			bpEffect := math.Max(0, (systolicBP-120)*0.05)
			diabetesEffect := diabetesFactor * 2
			familyEffect := familyFactor * 1.5

			// Drop efficacy decays with time since the last dose.
			medEffectiveness := math.Max(0.1, 1-(hoursSinceDrop/24)*0.7)

			iop := baseIOP + ageEffect + sleepEffect + stressEffect +
				activityEffect + bpEffect + diabetesEffect + familyEffect
			iop = iop/medEffectiveness + g.rng.NormFloat64()
			iop = math.Max(8, math.Min(35, iop))

			examples = append(examples, models.TrainingExample{
				Features: []float64{
					age, sleepQuality, stressLevel, physicalActivity,
					systolicBP, diastolicBP, diabetesFactor, familyFactor,
					hoursSinceDrop, c.HourSin, c.HourCos,
					c.IsMorning, c.IsEvening, c.IsNight,
				},
				Target: iop,
			})
		}
	}

	return examples
}
