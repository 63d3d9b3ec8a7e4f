// Package config loads service configuration from an optional YAML file,
// a .env file and the process environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"route-navigation-service/internal/services"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Routing    RoutingConfig    `yaml:"routing"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	Navigation NavigationConfig `yaml:"navigation"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port         string        `yaml:"port" validate:"required,numeric"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type RoutingConfig struct {
	Provider       string        `yaml:"provider" validate:"oneof=ors osrm mock"`
	BaseURL        string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey         string        `yaml:"api_key"`
	Profile        string        `yaml:"profile"`
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
	GeocodeCountry string        `yaml:"geocode_country"`
}

type CacheConfig struct {
	Backend     string        `yaml:"backend" validate:"oneof=none sqlite postgres redis"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisPrefix string        `yaml:"redis_prefix"`
	TTL         time.Duration `yaml:"ttl" validate:"gte=0"`
}

// StorageConfig locates the SQL database shared by saved routes and the
// SQL cache backends. DatabaseURL selects Postgres; otherwise SQLitePath is used.
type StorageConfig struct {
	SQLitePath  string `yaml:"sqlite_path"`
	DatabaseURL string `yaml:"database_url"`
	SeedPath    string `yaml:"seed_path"`
}

type NavigationConfig struct {
	NominalSpeedMPS      float64 `yaml:"nominal_speed_mps" validate:"gt=0"`
	InsertTolerancePx    float64 `yaml:"insert_tolerance_px" validate:"gte=0"`
	WaypointHitRadiusPx  float64 `yaml:"waypoint_hit_radius_px" validate:"gte=0"`
	ArrivalEpsilonM      float64 `yaml:"arrival_epsilon_m" validate:"gte=0"`
	OffRouteThresholdM   float64 `yaml:"off_route_threshold_m" validate:"gte=0"`
	MaxParallelRecompute int     `yaml:"max_parallel_recompute" validate:"gte=1"`
	AllowHighways        bool    `yaml:"allow_highways"`
	// SessionIdleTTL closes sessions unused for this long; zero keeps them.
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl" validate:"gte=0"`
}

type LogConfig struct {
	Format string `yaml:"format" validate:"oneof=json console"`
	Level  string `yaml:"level"`
}

func DefaultConfig() Config {
	s := services.DefaultSettings()
	return Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Routing: RoutingConfig{
			Provider: "mock",
			Timeout:  15 * time.Second,
		},
		Cache: CacheConfig{
			Backend:     "sqlite",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "segment:",
			TTL:         7 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			SQLitePath: "data/app.db",
		},
		Navigation: NavigationConfig{
			NominalSpeedMPS:      s.NominalSpeedMPS,
			InsertTolerancePx:    s.InsertTolerancePx,
			WaypointHitRadiusPx:  s.WaypointHitRadiusPx,
			ArrivalEpsilonM:      s.ArrivalEpsilonM,
			OffRouteThresholdM:   s.OffRouteThresholdM,
			MaxParallelRecompute: s.MaxParallelRecompute,
			AllowHighways:        s.AllowHighways,
			SessionIdleTTL:       2 * time.Hour,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

// Load layers the YAML file at path (skipped when it does not exist), then
// .env, then environment variables over the defaults, and validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("load config: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("load config: parse %q: %w", path, err)
			}
		}
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Routing.Provider == "ors" && strings.TrimSpace(c.Routing.APIKey) == "" {
		return errors.New("routing.api_key (ORS_API_KEY) is required for the ors provider")
	}
	if c.Routing.Provider == "osrm" && c.Routing.BaseURL == "" {
		return errors.New("routing.base_url (ROUTING_BASE_URL) is required for the osrm provider")
	}
	if c.Cache.Backend == "postgres" && c.Storage.DatabaseURL == "" {
		return errors.New("storage.database_url (DATABASE_URL) is required for the postgres cache")
	}
	return nil
}

// Settings maps the navigation section onto engine settings.
func (c Config) Settings() services.Settings {
	n := c.Navigation
	return services.Settings{
		NominalSpeedMPS:      n.NominalSpeedMPS,
		InsertTolerancePx:    n.InsertTolerancePx,
		WaypointHitRadiusPx:  n.WaypointHitRadiusPx,
		ArrivalEpsilonM:      n.ArrivalEpsilonM,
		OffRouteThresholdM:   n.OffRouteThresholdM,
		MaxParallelRecompute: n.MaxParallelRecompute,
		AllowHighways:        n.AllowHighways,
	}
}

func applyEnv(c *Config) error {
	c.Server.Port = Get("PORT", c.Server.Port)
	if v := Get("CORS_ORIGINS", ""); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	c.Routing.Provider = Get("ROUTING_PROVIDER", c.Routing.Provider)
	c.Routing.BaseURL = Get("ROUTING_BASE_URL", c.Routing.BaseURL)
	c.Routing.APIKey = Get("ORS_API_KEY", c.Routing.APIKey)
	c.Routing.Profile = Get("ROUTING_PROFILE", c.Routing.Profile)
	c.Routing.GeocodeCountry = Get("GEOCODE_COUNTRY", c.Routing.GeocodeCountry)

	c.Cache.Backend = Get("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.RedisAddr = Get("REDIS_ADDR", c.Cache.RedisAddr)

	c.Storage.SQLitePath = Get("DB_PATH", c.Storage.SQLitePath)
	c.Storage.DatabaseURL = Get("DATABASE_URL", c.Storage.DatabaseURL)
	c.Storage.SeedPath = Get("SEED_PATH", c.Storage.SeedPath)

	c.Log.Format = Get("LOG_FORMAT", c.Log.Format)
	c.Log.Level = Get("LOG_LEVEL", c.Log.Level)

	var err error
	if c.Server.ReadTimeout, err = getDuration("READ_TIMEOUT", c.Server.ReadTimeout); err != nil {
		return err
	}
	if c.Server.WriteTimeout, err = getDuration("WRITE_TIMEOUT", c.Server.WriteTimeout); err != nil {
		return err
	}
	if c.Routing.Timeout, err = getDuration("ROUTING_TIMEOUT", c.Routing.Timeout); err != nil {
		return err
	}
	if c.Cache.TTL, err = getDuration("CACHE_TTL", c.Cache.TTL); err != nil {
		return err
	}
	if c.Navigation.SessionIdleTTL, err = getDuration("SESSION_IDLE_TTL", c.Navigation.SessionIdleTTL); err != nil {
		return err
	}

	n := &c.Navigation
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"NOMINAL_SPEED_MPS", &n.NominalSpeedMPS},
		{"INSERT_TOLERANCE_PX", &n.InsertTolerancePx},
		{"WAYPOINT_HIT_RADIUS_PX", &n.WaypointHitRadiusPx},
		{"ARRIVAL_EPSILON_M", &n.ArrivalEpsilonM},
		{"OFF_ROUTE_THRESHOLD_M", &n.OffRouteThresholdM},
	} {
		if *f.dst, err = getFloat(f.key, *f.dst); err != nil {
			return err
		}
	}
	if v := Get("MAX_PARALLEL_RECOMPUTE", ""); v != "" {
		if n.MaxParallelRecompute, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("MAX_PARALLEL_RECOMPUTE: %w", err)
		}
	}
	if v := Get("ALLOW_HIGHWAYS", ""); v != "" {
		if n.AllowHighways, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("ALLOW_HIGHWAYS: %w", err)
		}
	}
	return nil
}

// Get returns the environment variable key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
