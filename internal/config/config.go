package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/database"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/validator"
	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Grid     GridConfig
	Storage  StorageConfig
	Watch    WatchConfig
}

// DatabaseConfig is optional. Run history is kept only when URL or Host is set.
type DatabaseConfig struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// JWTConfig holds JWT configuration. An empty secret leaves the API open.
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	MaxUploadBytes int64
	CORSOrigins    []string
}

// GridConfig is the geometry of a schedule sheet and the log policy.
type GridConfig struct {
	DayRow         int
	DateRow        int
	FirstDayColumn int
	DayCount       int
	NameColumn     int
	SummaryCell    string
	LogSheet       string
	LogSchema      string
	Discovery      string
	EmployeeStart  int
	EmployeeCount  int
	EmployeeRows   []int
}

// StorageConfig is where annotated workbooks are kept.
type StorageConfig struct {
	BasePath string
	BaseURL  string
}

// WatchConfig drives the checker's watch mode.
type WatchConfig struct {
	Interval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{}
	var err error

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 1)
	if err != nil {
		return nil, err
	}
	connLifetime, err := getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		URL:             getEnv("DATABASE_URL", ""),
		Host:            getEnv("DB_HOST", ""),
		Port:            dbPort,
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "schedule_checker"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxConns:        int32(maxConns),
		MinConns:        int32(minConns),
		MaxConnLifetime: connLifetime,
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes: int64(maxUploadMB) << 20,
		CORSOrigins:    getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "24h"),
	}

	// Grid configuration
	grid := GridConfig{
		SummaryCell: getEnv("GRID_SUMMARY_CELL", "B15"),
		LogSheet:    getEnv("GRID_LOG_SHEET", "Debug"),
		LogSchema:   strings.ToLower(getEnv("GRID_LOG_SCHEMA", string(validation.LogSchemaDetailed))),
		Discovery:   strings.ToLower(getEnv("GRID_DISCOVERY", string(validation.DiscoveryScan))),
	}
	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"GRID_DAY_ROW", 3, &grid.DayRow},
		{"GRID_DATE_ROW", 4, &grid.DateRow},
		{"GRID_FIRST_DAY_COLUMN", 2, &grid.FirstDayColumn},
		{"GRID_DAY_COUNT", 7, &grid.DayCount},
		{"GRID_NAME_COLUMN", 1, &grid.NameColumn},
		{"GRID_EMPLOYEE_START_ROW", 6, &grid.EmployeeStart},
		{"GRID_EMPLOYEE_COUNT", 7, &grid.EmployeeCount},
	}
	for _, i := range ints {
		if *i.dst, err = getEnvInt(i.key, i.fallback); err != nil {
			return nil, err
		}
	}
	if grid.EmployeeRows, err = getEnvIntSlice("GRID_EMPLOYEE_ROWS"); err != nil {
		return nil, err
	}
	config.Grid = grid

	// Storage configuration
	config.Storage = StorageConfig{
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "/uploads"),
	}

	// Watch configuration
	interval, err := getEnvDuration("WATCH_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}
	config.Watch = WatchConfig{Interval: interval}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs validator.ValidationErrors

	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, validator.ValidationError{Field: "APP_PORT", Message: "must be between 1 and 65535"})
	}
	if c.DatabaseEnabled() && c.Database.URL == "" && c.Database.Password == "" {
		errs = append(errs, validator.ValidationError{Field: "DB_PASSWORD", Message: "is required when DB_HOST is set"})
	}
	if c.JWT.Secret != "" {
		if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
			errs = append(errs, validator.ValidationError{Field: "JWT_ACCESS_EXPIRATION_TIME", Message: "must be a duration"})
		}
	}
	if c.Watch.Interval <= 0 {
		errs = append(errs, validator.ValidationError{Field: "WATCH_INTERVAL", Message: "must be positive"})
	}
	if !validator.IsValidSheetName(c.Grid.LogSheet) {
		errs = append(errs, validator.ValidationError{Field: "GRID_LOG_SHEET", Message: "is not a valid sheet name"})
	}
	if !validator.IsInSlice(c.Grid.LogSchema, validation.LogSchemaValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "GRID_LOG_SCHEMA",
			Message: "must be one of: " + strings.Join(validation.LogSchemaValues, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DatabaseEnabled reports whether run history should be persisted.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.URL != "" || c.Database.Host != ""
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// PoolConfig returns the pool settings for database.NewPostgreSQLDB.
func (c *Config) PoolConfig() database.PoolConfig {
	return database.PoolConfig{
		MaxConns:        c.Database.MaxConns,
		MinConns:        c.Database.MinConns,
		MaxConnLifetime: c.Database.MaxConnLifetime,
		ConnectTimeout:  5 * time.Second,
	}
}

// Layout builds the sheet geometry. Geometry errors are reported by the
// validator that consumes it.
func (g GridConfig) Layout() validation.Layout {
	return validation.Layout{
		DayRow:         g.DayRow,
		DateRow:        g.DateRow,
		FirstDayColumn: g.FirstDayColumn,
		DayCount:       g.DayCount,
		NameColumn:     g.NameColumn,
		SummaryCell:    g.SummaryCell,
		Discovery: validation.Discovery{
			Mode:     validation.DiscoveryMode(g.Discovery),
			StartRow: g.EmployeeStart,
			Count:    g.EmployeeCount,
			Rows:     g.EmployeeRows,
		},
	}
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (a AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(a.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func getEnvIntSlice(key string) ([]int, error) {
	var result []int
	for _, part := range getEnvSlice(key, nil) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		result = append(result, n)
	}
	return result, nil
}
