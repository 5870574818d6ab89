package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/attendance/internal/constants"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Engine     EngineConfig
	Database   DatabaseConfig
	Attendance AttendanceConfig
	Web        WebConfig
	Thresholds ThresholdsConfig
}

type EngineConfig struct {
	Provider string // faceserv (default) or compreface
	URL      string // base URL of the face engine HTTP API
	APIKey   string // API key for engines that require one (CompreFace)
	Model    string // engine model name, used for threshold lookup
	MaxSide  int    // longest image side sent to the engine (default 1280)
}

type DatabaseConfig struct {
	Backend       string // postgres (default when URL set) or sqlite
	URL           string // PostgreSQL connection URL
	SQLitePath    string // path to the SQLite database file
	MaxOpenConns  int    // maximum open connections (default 25)
	MaxIdleConns  int    // maximum idle connections (default 5)
	HNSWIndexPath string // path to persist the gallery HNSW index (optional)
}

type AttendanceConfig struct {
	PeopleDir     string  // directory holding enrollment photos (default "people")
	AttendanceDir string  // directory for attendance.csv and exported reports (default "attendance")
	Threshold     float64 // maximum cosine distance for a match; 0 means use the model default
}

type WebConfig struct {
	Port     int
	Host     string
	APIToken string // bearer token required on mutating routes; empty disables auth
}

type ThresholdsConfig struct {
	Models map[string]ModelThreshold `yaml:"models"`
}

type ModelThreshold struct {
	Threshold float64 `yaml:"threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDefault reads an environment variable, falling back to a default when unset.
func envDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	return &Config{
		Engine: EngineConfig{
			Provider: envDefault("FACE_ENGINE", "faceserv"),
			URL:      os.Getenv("FACE_ENGINE_URL"),
			APIKey:   os.Getenv("FACE_ENGINE_API_KEY"),
			Model:    envDefault("FACE_ENGINE_MODEL", "facenet128"),
			MaxSide:  envInt("FACE_ENGINE_MAX_SIDE", 1280),
		},
		Database: DatabaseConfig{
			Backend:       os.Getenv("DATABASE_BACKEND"),
			URL:           os.Getenv("DATABASE_URL"),
			SQLitePath:    envDefault("SQLITE_PATH", "attendance.db"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HNSWIndexPath: os.Getenv("HNSW_INDEX_PATH"),
		},
		Attendance: AttendanceConfig{
			PeopleDir:     envDefault("PEOPLE_DIR", "people"),
			AttendanceDir: envDefault("ATTENDANCE_DIR", "attendance"),
			Threshold:     envFloat("MATCH_THRESHOLD", 0),
		},
		Web: WebConfig{
			Port:     envInt("WEB_PORT", 8080),
			Host:     envDefault("WEB_HOST", "0.0.0.0"),
			APIToken: os.Getenv("API_TOKEN"),
		},
		Thresholds: thresholds,
	}
}

// StorageBackend resolves the storage backend name. An explicit
// DATABASE_BACKEND wins; otherwise postgres is used when DATABASE_URL is set
// and sqlite otherwise.
func (c *Config) StorageBackend() string {
	if c.Database.Backend != "" {
		return c.Database.Backend
	}
	if c.Database.URL != "" {
		return "postgres"
	}
	return "sqlite"
}

// MatchThreshold returns the effective match threshold: the MATCH_THRESHOLD
// override when set, then the embedded default for the configured engine
// model, then 0.5.
func (c *Config) MatchThreshold() float64 {
	if c.Attendance.Threshold > 0 {
		return c.Attendance.Threshold
	}
	if m, ok := c.Thresholds.Models[c.Engine.Model]; ok && m.Threshold > 0 {
		return m.Threshold
	}
	return constants.DefaultMatchThreshold
}
