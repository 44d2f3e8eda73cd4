package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm/logger"

	"hostal-backend/services"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// DefaultSweepInterval applies when SWEEP_INTERVAL is unset.
const DefaultSweepInterval = 5 * time.Minute

type Config struct {
	Port        string
	CorsOrigins []string

	StorageDriver string
	MySQLDSN      string
	MySQLDBName   string
	PostgresDSN   string
	MongoURI      string
	MongoDB       string
	DBLogLevel    logger.LogLevel

	Stay              services.StayPolicy
	SweepInterval     time.Duration
	MaintenancePolicy services.MaintenancePolicy
	SeedRooms         bool
}

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

// Load reads the process environment. Call godotenv.Load before it if a
// .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          envOrDefault("PORT", "8080"),
		CorsOrigins:   parseCorsOrigins(os.Getenv("CORS_ORIGINS")),
		StorageDriver: strings.ToLower(envOrDefault("STORAGE_DRIVER", DriverMySQL)),
		MongoURI:      envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       envOrDefault("MONGO_DB", "hostal"),
	}

	switch cfg.StorageDriver {
	case DriverMySQL:
		dsn, dbName, err := resolveMySQLDSN()
		if err != nil {
			return nil, fmt.Errorf("mysql dsn: %w", err)
		}
		cfg.MySQLDSN, cfg.MySQLDBName = dsn, dbName
	case DriverPostgres:
		cfg.PostgresDSN = resolvePostgresDSN()
	case DriverMongo, DriverMemory:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER %q no soportado", cfg.StorageDriver)
	}

	level, err := parseLogLevel(envOrDefault("DB_LOG_LEVEL", "warn"))
	if err != nil {
		return nil, err
	}
	cfg.DBLogLevel = level

	inHour, err := parseHour("CHECKIN_HOUR", 6)
	if err != nil {
		return nil, err
	}
	outHour, err := parseHour("CHECKOUT_HOUR", 12)
	if err != nil {
		return nil, err
	}
	cfg.Stay = services.StayPolicy{
		Location:     loadLocation(envOrDefault("HOTEL_TIMEZONE", "America/Lima")),
		CheckInHour:  inHour,
		CheckOutHour: outHour,
	}

	cfg.SweepInterval, err = time.ParseDuration(envOrDefault("SWEEP_INTERVAL", DefaultSweepInterval.String()))
	if err != nil || cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL inválido: %q", os.Getenv("SWEEP_INTERVAL"))
	}

	cfg.MaintenancePolicy, err = services.ParseMaintenancePolicy(os.Getenv("MAINTENANCE_POLICY"))
	if err != nil {
		return nil, err
	}

	cfg.SeedRooms, _ = strconv.ParseBool(envOrDefault("SEED_ROOMS", "false"))
	return cfg, nil
}

func parseCorsOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// loadLocation falls back to fixed UTC-5 when the host has no tzdata.
func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("⚠️ timezone %s not available (%v); using UTC-5", name, err)
		return time.FixedZone("PET", -5*60*60)
	}
	return loc
}

func parseHour(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	h, err := strconv.Atoi(raw)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%s debe ser una hora entre 0 y 23: %q", key, raw)
	}
	return h, nil
}

func parseLogLevel(raw string) (logger.LogLevel, error) {
	switch strings.ToLower(raw) {
	case "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "warn":
		return logger.Warn, nil
	case "info":
		return logger.Info, nil
	}
	return 0, fmt.Errorf("DB_LOG_LEVEL inválido: %q", raw)
}
