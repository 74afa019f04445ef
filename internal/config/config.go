// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Store       StoreConfig
	Classifier  ClassifierConfig
	Seasonal    SeasonalConfig
	Scorer      ScorerConfig
	Arbitrage   ArbitrageConfig
	Report      ReportConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	AlertsSubject  string
}

// StoreConfig selects the trend store backend
type StoreConfig struct {
	// Backend is "postgres" or "memory".
	Backend string
}

// ClassifierConfig holds direction classification thresholds
type ClassifierConfig struct {
	WindowDays         int
	WindowSize         int
	MinObservations    int
	BreakoutThreshold  float64
	RisingThreshold    float64
	DecliningThreshold float64
}

// SeasonalConfig holds seasonal matching configuration
type SeasonalConfig struct {
	MinConfidence float64

	// PatternsPath optionally overrides the built-in pattern library with
	// a YAML file.
	PatternsPath string
}

// ScorerConfig holds opportunity scoring weights
type ScorerConfig struct {
	VelocityWeight      float64
	CompetitionWeight   float64
	SeasonalBoostFactor float64
	SeasonalHorizonDays int
	HighScore           float64
	LowScore            float64
	HighCompetition     float64
}

// ArbitrageConfig holds cross-platform divergence thresholds
type ArbitrageConfig struct {
	VolumeRatioThreshold      float64
	CompetitionDeltaThreshold float64
}

// ReportConfig holds report rendering configuration
type ReportConfig struct {
	TopN int
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "trendscope"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			AlertsSubject:  getEnv("NATS_ALERTS_SUBJECT", "trends.alerts"),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "postgres"),
		},
		Classifier: ClassifierConfig{
			WindowDays:         getEnvAsInt("CLASSIFIER_WINDOW_DAYS", 30),
			WindowSize:         getEnvAsInt("CLASSIFIER_WINDOW_SIZE", 30),
			MinObservations:    getEnvAsInt("CLASSIFIER_MIN_OBSERVATIONS", 3),
			BreakoutThreshold:  getEnvAsFloat("CLASSIFIER_BREAKOUT_THRESHOLD", 0.50),
			RisingThreshold:    getEnvAsFloat("CLASSIFIER_RISING_THRESHOLD", 0.15),
			DecliningThreshold: getEnvAsFloat("CLASSIFIER_DECLINING_THRESHOLD", -0.15),
		},
		Seasonal: SeasonalConfig{
			MinConfidence: getEnvAsFloat("SEASONAL_MIN_CONFIDENCE", 0.3),
			PatternsPath:  getEnv("SEASONAL_PATTERNS_PATH", ""),
		},
		Scorer: ScorerConfig{
			VelocityWeight:      getEnvAsFloat("SCORER_VELOCITY_WEIGHT", 0.5),
			CompetitionWeight:   getEnvAsFloat("SCORER_COMPETITION_WEIGHT", 0.5),
			SeasonalBoostFactor: getEnvAsFloat("SCORER_SEASONAL_BOOST_FACTOR", 0.25),
			SeasonalHorizonDays: getEnvAsInt("SCORER_SEASONAL_HORIZON_DAYS", 60),
			HighScore:           getEnvAsFloat("SCORER_HIGH_SCORE", 0.65),
			LowScore:            getEnvAsFloat("SCORER_LOW_SCORE", 0.35),
			HighCompetition:     getEnvAsFloat("SCORER_HIGH_COMPETITION", 0.7),
		},
		Arbitrage: ArbitrageConfig{
			VolumeRatioThreshold:      getEnvAsFloat("ARBITRAGE_VOLUME_RATIO_THRESHOLD", 2.0),
			CompetitionDeltaThreshold: getEnvAsFloat("ARBITRAGE_COMPETITION_DELTA_THRESHOLD", 0.2),
		},
		Report: ReportConfig{
			TopN: getEnvAsInt("REPORT_TOP_N", 10),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid. Threshold and weight consistency is
// enforced by the component constructors at startup.
func validate(config Config) error {
	switch config.Store.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("store backend must be postgres or memory, got %q", config.Store.Backend)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
