package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir string `json:"log_dir"`

	// Middleware settings
	Middleware MiddlewareConfig `json:"middleware"`

	// CORS Configuration
	CORS CORSConfig `json:"cors"`

	// Rate Limiting (inbound)
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Extraction pipeline settings
	Extract ExtractConfig `json:"extract"`

	// Mirror endpoint lists, in priority order
	Mirrors MirrorConfig `json:"mirrors"`

	// Application version
	Version string `json:"version"`

	// Request and shutdown timeouts
	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type MiddlewareConfig struct {
	EnableRecover   bool `json:"enable_recover"`
	EnableRequestID bool `json:"enable_request_id"`
	EnableLogger    bool `json:"enable_logger"`
	EnableCORS      bool `json:"enable_cors"`
	EnableRateLimit bool `json:"enable_rate_limit"`
	EnableCompress  bool `json:"enable_compress"`
}

type DatabaseConfig struct {
	Path               string        `json:"path"`
	MaxConnections     int           `json:"max_connections"`
	MaxIdleConnections int           `json:"max_idle_connections"`
	ConnMaxLifetime    time.Duration `json:"conn_max_lifetime"`
}

type ExtractConfig struct {
	// yt-dlp invocation
	YTDLPPath    string        `json:"ytdlp_path"`
	YTDLPTimeout time.Duration `json:"ytdlp_timeout"`
	CookiesFile  string        `json:"cookies_file"`

	// Result cache
	CacheTTL time.Duration `json:"cache_ttl"`

	// Outbound politeness limit against upstream extraction
	UpstreamRPM   int `json:"upstream_rpm"`
	UpstreamBurst int `json:"upstream_burst"`

	// Per-tier network timeouts. Reliable sources get short timeouts,
	// the last-resort tiers get longer ones.
	BackendTimeout  time.Duration `json:"backend_timeout"`
	MirrorTimeout   time.Duration `json:"mirror_timeout"`
	ScrapeTimeout   time.Duration `json:"scrape_timeout"`
	EmbeddedTimeout time.Duration `json:"embedded_timeout"`

	// Default listing page size
	MaxResults int `json:"max_results"`

	// Remote authoritative backend, if this process is acting as a pure
	// resolution client. Empty means no backend source is configured.
	BackendURL string `json:"backend_url"`
}

type MirrorConfig struct {
	Piped     []string `json:"piped"`
	Invidious []string `json:"invidious"`
}

type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

func defaultDevMiddleware() MiddlewareConfig {
	return MiddlewareConfig{
		EnableRecover:   true,
		EnableRequestID: true,
		EnableLogger:    true,
		EnableCORS:      true,
		EnableRateLimit: false, // Disabled for testing
		EnableCompress:  false,
	}
}

func defaultProdMiddleware() MiddlewareConfig {
	return MiddlewareConfig{
		EnableRecover:   true,
		EnableRequestID: true,
		EnableLogger:    true,
		EnableCORS:      true,
		EnableRateLimit: true,
		EnableCompress:  true,
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Server settings
		ServerPort:   getEnv("SERVER_PORT", "5000"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		// Application paths
		LogDir: getEnv("LOG_DIR", "/var/log/tubesource"),

		// Application version
		Version: getEnv("VERSION", "1.0.0"),

		// Request and shutdown timeouts
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 5*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// CORS Configuration
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsStringSlice(
				"CORS_ALLOWED_METHODS",
				[]string{"GET", "POST", "DELETE", "OPTIONS"},
			),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		// Rate Limiting
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
		},

		// Database
		Database: DatabaseConfig{
			Path:               getEnv("DB_PATH", "/var/lib/tubesource/channels.db"),
			MaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},

		// Extraction pipeline
		Extract: ExtractConfig{
			YTDLPPath:       getEnv("YTDLP_PATH", "yt-dlp"),
			YTDLPTimeout:    getEnvAsDuration("YTDLP_TIMEOUT", 60*time.Second),
			CookiesFile:     getEnv("YTDLP_COOKIES_FILE", ""),
			CacheTTL:        getEnvAsDuration("CACHE_TTL", time.Hour),
			UpstreamRPM:     getEnvAsInt("UPSTREAM_RPM", 30),
			UpstreamBurst:   getEnvAsInt("UPSTREAM_BURST", 5),
			BackendTimeout:  getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
			MirrorTimeout:   getEnvAsDuration("MIRROR_TIMEOUT", 15*time.Second),
			ScrapeTimeout:   getEnvAsDuration("SCRAPE_TIMEOUT", 30*time.Second),
			EmbeddedTimeout: getEnvAsDuration("EMBEDDED_TIMEOUT", 60*time.Second),
			MaxResults:      getEnvAsInt("MAX_RESULTS", 50),
			BackendURL:      getEnv("BACKEND_URL", ""),
		},

		// Mirror lists are priority-ordered; overridable so deployments can
		// drop instances that have gone dark without a rebuild.
		Mirrors: MirrorConfig{
			Piped: getEnvAsStringSlice("PIPED_MIRRORS", []string{
				"https://pipedapi.kavin.rocks",
				"https://api.piped.yt",
				"https://pipedapi.leptons.xyz",
			}),
			Invidious: getEnvAsStringSlice("INVIDIOUS_MIRRORS", []string{
				"https://inv.nadeko.net",
				"https://invidious.nerdvpn.de",
				"https://yewtu.be",
			}),
		},

		// Middleware
		Middleware: defaultDevMiddleware(),
	}

	if os.Getenv("ENV") == "production" {
		cfg.Middleware = defaultProdMiddleware()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}
	if err := validateTimeouts(c); err != nil {
		return err
	}
	if err := validateExtract(c); err != nil {
		return err
	}
	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	return nil
}

func validateExtract(c *Config) error {
	if c.Extract.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Extract.YTDLPTimeout <= 0 {
		return fmt.Errorf("yt-dlp timeout must be positive")
	}
	if c.Extract.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive")
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			return strings.Split(value, ",")
		}
	}
	return defaultValue
}
