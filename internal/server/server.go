// Package server is the HTTP adapter around the forecast engine. It accepts
// lenient requests: missing numeric fields receive documented defaults
// before the profile reaches the engine.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ocutrend/iopcast/internal/database"
	"github.com/ocutrend/iopcast/internal/forecast"
	"github.com/ocutrend/iopcast/internal/notify"
	"github.com/ocutrend/iopcast/models"
)

// Defaults applied to absent request fields.
const (
	DefaultAge              = 50
	DefaultSleepQuality     = 7
	DefaultStressLevel      = 4
	DefaultPhysicalActivity = 5
	DefaultLastDropHours    = 24
)

// Server holds the adapter's collaborators. db and notifier may be nil when
// the corresponding feature is not configured.
type Server struct {
	engine   *forecast.Engine
	db       *database.DB
	notifier *notify.Notifier
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// New creates a server around an initialised engine.
func New(engine *forecast.Engine, db *database.DB, notifier *notify.Notifier, rps int) *Server {
	if rps <= 0 {
		rps = 10
	}
	return &Server{
		engine:   engine,
		db:       db,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), rps),
		logger:   log.With().Str("component", "http_server").Logger(),
	}
}

// Router builds the gin router with CORS and rate limiting applied.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	router.Use(s.rateLimit)

	router.GET("/", s.home)
	router.GET("/api/health", s.health)
	router.POST("/api/predict-iop", s.predictIOP)
	router.GET("/api/history", s.history)

	return router
}

func (s *Server) rateLimit(c *gin.Context) {
	if !s.limiter.Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	c.Next()
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "IOP Forecasting API",
		"status":  "active",
		"model":   string(s.engine.ModelSource()),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "Backend is running"})
}

// predictRequest uses pointers so absent fields are distinguishable from
// zero values and can be defaulted.
type predictRequest struct {
	Age              *float64 `json:"age"`
	SleepQuality     *float64 `json:"sleep_quality"`
	StressLevel      *float64 `json:"stress_level"`
	PhysicalActivity *float64 `json:"physical_activity"`
	SystolicBP       *float64 `json:"systolic_bp"`
	DiastolicBP      *float64 `json:"diastolic_bp"`
	DiabetesStatus   string   `json:"diabetes_status"`
	FamilyHistory    string   `json:"family_history"`
	LastDropHoursAgo *float64 `json:"last_drop_hours_ago"`
}

func (r *predictRequest) toProfile() models.PatientProfile {
	valueOr := func(v *float64, def float64) float64 {
		if v != nil {
			return *v
		}
		return def
	}
	return models.PatientProfile{
		Age:                valueOr(r.Age, DefaultAge),
		SleepQuality:       valueOr(r.SleepQuality, DefaultSleepQuality),
		StressLevel:        valueOr(r.StressLevel, DefaultStressLevel),
		PhysicalActivity:   valueOr(r.PhysicalActivity, DefaultPhysicalActivity),
		SystolicBP:         valueOr(r.SystolicBP, 0),
		DiastolicBP:        valueOr(r.DiastolicBP, 0),
		DiabetesStatus:     r.DiabetesStatus,
		FamilyHistory:      r.FamilyHistory,
		HoursSinceLastDrop: valueOr(r.LastDropHoursAgo, DefaultLastDropHours),
	}
}

type circadianAnalysisResponse struct {
	PeakIOP    float64 `json:"peak_iop"`
	TroughIOP  float64 `json:"trough_iop"`
	AvgIOP     float64 `json:"avg_iop"`
	Amplitude  float64 `json:"amplitude"`
	PeakTime   string  `json:"peak_time"`
	TroughTime string  `json:"trough_time"`
}

type predictResponse struct {
	Predictions       []models.TrajectoryPoint  `json:"predictions"`
	OptimalDropTime   string                    `json:"optimal_drop_time"`
	CircadianAnalysis circadianAnalysisResponse `json:"circadian_analysis"`
	RiskAssessment    models.RiskAssessment     `json:"risk_assessment"`
	ModelType         string                    `json:"model_type"`
}

func (s *Server) predictIOP(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := req.toProfile()
	result, err := s.engine.Forecast(profile, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Forecast failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.recordAndAlert(profile, result)

	c.JSON(http.StatusOK, predictResponse{
		Predictions:     result.Predictions,
		OptimalDropTime: result.OptimalDropTime,
		CircadianAnalysis: circadianAnalysisResponse{
			PeakIOP:    result.Analysis.PeakIOP,
			TroughIOP:  result.Analysis.TroughIOP,
			AvgIOP:     result.Analysis.AvgIOP,
			Amplitude:  result.Analysis.Amplitude,
			PeakTime:   result.Analysis.PeakTime,
			TroughTime: result.Analysis.TroughTime,
		},
		RiskAssessment: result.Assessment,
		ModelType:      string(s.engine.ModelSource()),
	})
}

// recordAndAlert runs the optional side channels. Both are best effort and
// never fail the request.
func (s *Server) recordAndAlert(profile models.PatientProfile, result *models.ForecastResult) {
	if s.db != nil {
		if err := s.db.RecordForecast(profile, result); err != nil {
			s.logger.Warn().Err(err).Msg("Could not record forecast")
		}
	}
	if s.notifier != nil && result.Assessment.Level == models.RiskCritical {
		if err := s.notifier.CriticalAlert(result); err != nil {
			s.logger.Warn().Err(err).Msg("Could not send critical alert")
		}
	}
}

func (s *Server) history(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "forecast history not configured"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := s.db.RecentForecasts(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("History query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecasts": records, "count": len(records)})
}
