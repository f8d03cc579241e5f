package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"last-mile-service/internal/domain"
)

// Runtime configuration, sourced from the environment.
type Config struct {
	Port string

	// Self-hosted store when set; otherwise StoreBaseURL selects the
	// remote HTTP store, and with neither the service runs in demo mode.
	DatabaseURL  string
	StoreBaseURL string

	MatrixAPIKey  string
	MatrixBaseURL string

	CachePath  string
	RedisAddr  string
	ReceiptDir string
	SeedPath   string
	LogFile    string
	Debug      bool

	DepotName    string
	Depot        domain.Coordinates
	WaypointName string
	Waypoint     domain.Coordinates
	// Routes skip the security waypoint when disabled.
	WaypointEnabled bool

	DefaultUnitPrice float64
	CatalogPath      string

	FlushInterval time.Duration
}

// Load reads configuration from environment variables with the same
// defaults the field deployment ships with.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            Get("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StoreBaseURL:    os.Getenv("STORE_BASE_URL"),
		MatrixAPIKey:    os.Getenv("MATRIX_API_KEY"),
		MatrixBaseURL:   Get("MATRIX_BASE_URL", "https://maps.googleapis.com"),
		CachePath:       Get("CACHE_PATH", "data/field.db"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		ReceiptDir:      Get("RECEIPT_DIR", "data/receipts"),
		SeedPath:        Get("SEED_PATH", "data/seeds/orders.json"),
		LogFile:         os.Getenv("LOG_FILE"),
		Debug:           os.Getenv("DEBUG") == "1",
		DepotName:       Get("WAREHOUSE_NAME", "Almacén Principal"),
		WaypointName:    Get("WAYPOINT_NAME", "Huichapan (Waypoint Seguridad)"),
		WaypointEnabled: Get("WAYPOINT_ENABLED", "1") != "0",
		CatalogPath:     os.Getenv("CATALOG_PATH"),
	}

	var err error
	if cfg.Depot.Lat, err = getFloat("WAREHOUSE_LAT", 19.4326); err != nil {
		return nil, err
	}
	if cfg.Depot.Lng, err = getFloat("WAREHOUSE_LNG", -99.1332); err != nil {
		return nil, err
	}
	if cfg.Waypoint.Lat, err = getFloat("WAYPOINT_LAT", 20.3743125); err != nil {
		return nil, err
	}
	if cfg.Waypoint.Lng, err = getFloat("WAYPOINT_LNG", -99.6623125); err != nil {
		return nil, err
	}
	if cfg.DefaultUnitPrice, err = getFloat("DEFAULT_UNIT_PRICE", 95.0); err != nil {
		return nil, err
	}

	flushSec, err := getInt("OUTBOX_FLUSH_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.FlushInterval = time.Duration(flushSec) * time.Second

	return cfg, nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, v, err)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, v, err)
	}
	return n, nil
}
