package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Sink drivers.
const (
	DriverPostgres     = "postgres"
	DriverSupabase     = "supabase"
	DriverSupabaseREST = "supabase-rest"
	DriverMySQL        = "mysql"
	DriverSQLite       = "sqlite"
	DriverMongo        = "mongo"
)

// Config holds everything one run needs. It is resolved once and passed down explicitly.
type Config struct {
	APIKey            string
	APIBaseURL        string
	RequestsPerSecond float64
	RequestTimeout    time.Duration

	Channels         []string
	DestinationTable string
	Workers          int
	FilterProcessed  bool

	Sink SinkConfig

	LogLevel  string
	LogFormat string

	PushgatewayURL string
}

// SinkConfig selects and configures the storage backend.
type SinkConfig struct {
	Driver string

	// DatabaseURL is used as-is by postgres, mysql and sqlite when set.
	DatabaseURL string

	MySQLUser     string
	MySQLPassword string
	MySQLHost     string
	MySQLPort     string
	MySQLDB       string

	SupabaseURL      string
	SupabaseKey      string
	SupabasePassword string

	MongoURI string
	MongoDB  string
}

// Load reads a .env file when present, then environment variables and an
// optional channelmetrics.yaml. Environment variables win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("channelmetrics")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/channelmetrics")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_BASE_URL", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("API_RPS", 5.0)
	v.SetDefault("API_TIMEOUT", 30*time.Second)
	v.SetDefault("CHANNELS", "")
	v.SetDefault("DESTINATION_TABLE", "monthly_metrics")
	v.SetDefault("WORKERS", 1)
	v.SetDefault("FILTER_PROCESSED", false)
	v.SetDefault("SINK_DRIVER", DriverMySQL)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MYSQL_PORT", "3306")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "channelmetrics")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func fromViper(v *viper.Viper) Config {
	return Config{
		APIKey:            strings.TrimSpace(v.GetString("API_KEY")),
		APIBaseURL:        strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		RequestsPerSecond: v.GetFloat64("API_RPS"),
		RequestTimeout:    v.GetDuration("API_TIMEOUT"),
		Channels:          SplitList(v.GetString("CHANNELS")),
		DestinationTable:  v.GetString("DESTINATION_TABLE"),
		Workers:           v.GetInt("WORKERS"),
		FilterProcessed:   v.GetBool("FILTER_PROCESSED"),
		Sink: SinkConfig{
			Driver:           strings.ToLower(strings.TrimSpace(v.GetString("SINK_DRIVER"))),
			DatabaseURL:      v.GetString("DATABASE_URL"),
			MySQLUser:        v.GetString("MYSQL_USER"),
			MySQLPassword:    v.GetString("MYSQL_PASSWORD"),
			MySQLHost:        v.GetString("MYSQL_HOST"),
			MySQLPort:        v.GetString("MYSQL_PORT"),
			MySQLDB:          v.GetString("MYSQL_DB"),
			SupabaseURL:      v.GetString("SUPABASE_URL"),
			SupabaseKey:      v.GetString("SUPABASE_KEY"),
			SupabasePassword: v.GetString("SUPABASE_PASSWORD"),
			MongoURI:         v.GetString("MONGO_URI"),
			MongoDB:          v.GetString("MONGO_DB"),
		},
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		PushgatewayURL: v.GetString("PUSHGATEWAY_URL"),
	}
}

// Validate checks the values a run cannot do without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("API_KEY is required")
	}
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("invalid API_BASE_URL %q: %w", c.APIBaseURL, err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	switch c.Sink.Driver {
	case DriverPostgres, DriverSupabase, DriverSupabaseREST, DriverMySQL, DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unknown SINK_DRIVER %q", c.Sink.Driver)
	}
	return nil
}

// MySQLDSN returns DatabaseURL, or a go-sql-driver DSN built from the MYSQL_* settings.
func (s SinkConfig) MySQLDSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", s.MySQLUser, s.MySQLPassword, s.MySQLHost, s.MySQLPort, s.MySQLDB)
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
