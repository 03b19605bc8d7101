package models

// RiskLevel is an ordinal severity for a predicted IOP value.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
	RiskUnknown  RiskLevel = "unknown"
)

// Rank maps a risk level onto the ordinal scale low < moderate < high < critical.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskModerate:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// PatientProfile holds the patient attributes a forecast is computed from.
// It is treated as immutable once handed to the engine.
type PatientProfile struct {
	Age                float64 `json:"age"`
	SleepQuality       float64 `json:"sleep_quality"`     // 1-10
	StressLevel        float64 `json:"stress_level"`      // 1-10
	PhysicalActivity   float64 `json:"physical_activity"` // 1-10
	SystolicBP         float64 `json:"systolic_bp"`
	DiastolicBP        float64 `json:"diastolic_bp"`
	DiabetesStatus     string  `json:"diabetes_status"` // none|prediabetes|type1|type2
	FamilyHistory      string  `json:"family_history"`  // none|parent|sibling|multiple
	HoursSinceLastDrop float64 `json:"hours_since_last_drop"`
}

// TrajectoryPoint is one hour of the 24-hour forecast.
type TrajectoryPoint struct {
	Time              string    `json:"time,omitempty"`
	Hour              int       `json:"hour"`
	PredictedIOP      float64   `json:"predicted_iop"`
	RiskLevel         RiskLevel `json:"risk_level"`
	RecommendedAction string    `json:"recommended_action,omitempty"`
}

// TrainingExample is one labelled row of the synthetic corpus.
type TrainingExample struct {
	Features []float64 `json:"features"`
	Target   float64   `json:"target"`
}

// PatternAnalysis summarises the circadian shape of a trajectory.
type PatternAnalysis struct {
	PeakIOP    float64
	TroughIOP  float64
	AvgIOP     float64
	Amplitude  float64
	PeakTime   string
	TroughTime string
	PeakHour   int
	TroughHour int
}

// RiskAssessment is the aggregated verdict over the whole trajectory.
type RiskAssessment struct {
	Level          RiskLevel `json:"level"`
	Message        string    `json:"message"`
	RiskPercentage float64   `json:"risk_percentage"`
}

// ForecastResult is everything the engine produces for one request. Adapters
// shape it into their own wire formats.
type ForecastResult struct {
	Predictions     []TrajectoryPoint
	OptimalDropTime string
	Analysis        PatternAnalysis
	Assessment      RiskAssessment
}
