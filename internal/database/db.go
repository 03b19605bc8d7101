package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ocutrend/iopcast/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ForecastRecord is one stored forecast summary.
type ForecastRecord struct {
	ID              int64     `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Age             float64   `json:"age"`
	SleepQuality    float64   `json:"sleep_quality"`
	StressLevel     float64   `json:"stress_level"`
	HoursSinceDrop  float64   `json:"hours_since_last_drop"`
	PeakIOP         float64   `json:"peak_iop"`
	TroughIOP       float64   `json:"trough_iop"`
	AvgIOP          float64   `json:"avg_iop"`
	RiskLevel       string    `json:"risk_level"`
	RiskPercentage  float64   `json:"risk_percentage"`
	OptimalDropTime string    `json:"optimal_drop_time"`
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	// Create PostgreSQL connection string
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// The database may still be coming up alongside us; retry the first
	// contact with exponential backoff.
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(db.Ping, backoffStrategy); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS iop_forecasts (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			age DOUBLE PRECISION NOT NULL,
			sleep_quality DOUBLE PRECISION NOT NULL,
			stress_level DOUBLE PRECISION NOT NULL,
			hours_since_last_drop DOUBLE PRECISION NOT NULL,
			peak_iop DOUBLE PRECISION NOT NULL,
			trough_iop DOUBLE PRECISION NOT NULL,
			avg_iop DOUBLE PRECISION NOT NULL,
			risk_level TEXT NOT NULL,
			risk_percentage DOUBLE PRECISION NOT NULL,
			optimal_drop_time TEXT NOT NULL
		)
	`)

	return err
}

// RecordForecast stores one forecast's inputs and summary artifacts.
func (db *DB) RecordForecast(profile models.PatientProfile, result *models.ForecastResult) error {
	_, err := db.Exec(`
		INSERT INTO iop_forecasts (
			created_at, age, sleep_quality, stress_level, hours_since_last_drop,
			peak_iop, trough_iop, avg_iop, risk_level, risk_percentage, optimal_drop_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		time.Now(), profile.Age, profile.SleepQuality, profile.StressLevel, profile.HoursSinceLastDrop,
		result.Analysis.PeakIOP, result.Analysis.TroughIOP, result.Analysis.AvgIOP,
		string(result.Assessment.Level), result.Assessment.RiskPercentage, result.OptimalDropTime,
	)

	return err
}

// RecentForecasts returns the newest stored forecasts, most recent first.
func (db *DB) RecentForecasts(limit int) ([]ForecastRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT
			id, created_at, age, sleep_quality, stress_level, hours_since_last_drop,
			peak_iop, trough_iop, avg_iop, risk_level, risk_percentage, optimal_drop_time
		FROM iop_forecasts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ForecastRecord
	for rows.Next() {
		var r ForecastRecord
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.Age, &r.SleepQuality, &r.StressLevel, &r.HoursSinceDrop,
			&r.PeakIOP, &r.TroughIOP, &r.AvgIOP, &r.RiskLevel, &r.RiskPercentage, &r.OptimalDropTime,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
