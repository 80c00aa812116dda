package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the whole service configuration. Keys are the lower-cased
// mapstructure names, e.g. printing.jpeg_quality, overridable as
// DISC_PRINTING_JPEG_QUALITY.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Printing  PrintingConfig  `mapstructure:"printing"`
	Roles     RolesConfig     `mapstructure:"roles"`
	Session   SessionConfig   `mapstructure:"session"`
	Event     EventConfig     `mapstructure:"event"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	Port     string `mapstructure:"port"`
	Timezone string `mapstructure:"timezone"` // dates printed on exported documents
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres or sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN is a postgres URL with user info and database name escaped.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret                string        `mapstructure:"secret"`
	AccessTokenExpiration time.Duration `mapstructure:"access_token_expiration"`
	Issuer                string        `mapstructure:"issuer"`
	MaxLoginAttempts      int           `mapstructure:"max_login_attempts"`
	LockDuration          time.Duration `mapstructure:"lock_duration"`
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	MaxUploadSize    int64         `mapstructure:"max_upload_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`

	// per client IP, on login and anonymous submission
	RateLimitEnabled bool          `mapstructure:"rate_limit_enabled"`
	RateLimitWindow  time.Duration `mapstructure:"rate_limit_window"`
	LoginRateLimit   int           `mapstructure:"login_rate_limit"`
	SubmitRateLimit  int           `mapstructure:"submit_rate_limit"`

	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"` // s3 or filesystem

	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // S3-compatible services
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	PublicBaseURL   string `mapstructure:"public_base_url"`

	Directory string `mapstructure:"directory"`

	UploadConcurrency int `mapstructure:"upload_concurrency"`
}

type PrintingConfig struct {
	PaperSize     string        `mapstructure:"paper_size"`  // A4, A5 or LETTER
	Orientation   string        `mapstructure:"orientation"` // PORTRAIT or LANDSCAPE
	MarginMM      float64       `mapstructure:"margin_mm"`
	Scale         float64       `mapstructure:"scale"`
	Background    string        `mapstructure:"background"`
	MaxWidthPx    int           `mapstructure:"max_width_px"` // 0 keeps the captured width
	JPEGQuality   int           `mapstructure:"jpeg_quality"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
	ChromeURL     string        `mapstructure:"chrome_url"` // empty starts a local browser
	NoSandbox     bool          `mapstructure:"no_sandbox"`
}

// RolesConfig maps emails to roles for people missing from the users table.
type RolesConfig struct {
	Overrides map[string]string `mapstructure:"overrides"`
}

func (r RolesConfig) RoleOverride(email string) (string, bool) {
	role, ok := r.Overrides[strings.ToLower(strings.TrimSpace(email))]
	return role, ok
}

type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type EventConfig struct {
	KafkaEnabled  bool     `mapstructure:"kafka_enabled"`
	KafkaBrokers  []string `mapstructure:"kafka_brokers"`
	KafkaTopic    string   `mapstructure:"kafka_topic"`
	KafkaClientID string   `mapstructure:"kafka_client_id"`
	AuditLog      bool     `mapstructure:"audit_log"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"` // plaintext gRPC, development only
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	PrometheusEnabled bool          `mapstructure:"prometheus_enabled"` // pipeline metrics on /metrics
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

type ProfilingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ServerAddress     string `mapstructure:"server_address"`
	ApplicationName   string `mapstructure:"application_name"`
	BasicAuthUser     string `mapstructure:"basic_auth_user"`
	BasicAuthPassword string `mapstructure:"basic_auth_password"`
	SpanProfiles      bool   `mapstructure:"span_profiles"`
}

// defaults registers every key; viper only unmarshals environment overrides
// for keys it already knows.
var defaults = map[string]any{
	"app.name":     "disciplinario-backend",
	"app.env":      "development",
	"app.port":     "8080",
	"app.timezone": "America/Bogota",

	"database.driver":             "postgres",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "disciplinario",
	"database.sslmode":            "disable",
	"database.sqlite_path":        "disciplinario.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                  "",
	"jwt.access_token_expiration": 8 * time.Hour,
	"jwt.issuer":                  "disciplinario-backend",
	"jwt.max_login_attempts":      5,
	"jwt.lock_duration":           15 * time.Minute,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":       15 * time.Second,
	"http.write_timeout":      60 * time.Second, // exports wait for the browser
	"http.idle_timeout":       60 * time.Second,
	"http.max_header_bytes":   1 << 20,
	"http.max_body_size":      1 << 20,
	"http.max_upload_size":    50 << 20,
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"},
	"http.trusted_proxies":    []string{},
	"http.rate_limit_enabled": false,
	"http.rate_limit_window":  time.Minute,
	"http.login_rate_limit":   10,
	"http.submit_rate_limit":  20,
	"http.idempotency_ttl":    24 * time.Hour,

	"storage.backend":            "filesystem",
	"storage.bucket":             "anexos",
	"storage.region":             "us-east-1",
	"storage.endpoint":           "",
	"storage.access_key_id":      "",
	"storage.secret_access_key":  "",
	"storage.use_path_style":     false,
	"storage.public_base_url":    "",
	"storage.directory":          "./data/anexos",
	"storage.upload_concurrency": 4,

	"printing.paper_size":     "A4",
	"printing.orientation":    "PORTRAIT",
	"printing.margin_mm":      10.0,
	"printing.scale":          2.0,
	"printing.background":     "#ffffff",
	"printing.max_width_px":   0,
	"printing.jpeg_quality":   95,
	"printing.render_timeout": 30 * time.Second,
	"printing.chrome_url":     "",
	"printing.no_sandbox":     false,

	"session.ttl":            30 * time.Minute,
	"session.sweep_interval": 5 * time.Minute,

	"event.kafka_enabled":   false,
	"event.kafka_brokers":   []string{},
	"event.kafka_topic":     "disciplinario.events",
	"event.kafka_client_id": "disciplinario-backend",
	"event.audit_log":       false,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "disciplinario-backend",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.prometheus_enabled":      false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

	"profiling.enabled":             false,
	"profiling.server_address":      "",
	"profiling.application_name":    "",
	"profiling.basic_auth_user":     "",
	"profiling.basic_auth_password": "",
	"profiling.span_profiles":       false,
}

// Load reads config.toml (from ., ./backend or /app) under DISC_ environment
// overrides and the built-in defaults, then validates the result.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, dir := range []string{".", "./backend", "/app"} {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("DISC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.derive()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// derive fills values that default to another setting.
func (c *Config) derive() {
	if c.Storage.PublicBaseURL == "" && c.Storage.Backend == "filesystem" {
		c.Storage.PublicBaseURL = "/files"
	}
	if c.Profiling.ApplicationName == "" {
		c.Profiling.ApplicationName = c.Telemetry.ServiceName
	}
	if c.Roles.Overrides == nil {
		c.Roles.Overrides = map[string]string{}
	}
}

type check struct {
	failed bool
	err    string
}

func (c *Config) validate() error {
	db, prod := c.Database, c.App.Env == "production"

	checks := []check{
		{!slices.Contains([]string{"postgres", "sqlite"}, db.Driver),
			fmt.Sprintf("database.driver must be postgres or sqlite, got %q", db.Driver)},
		{db.MaxOpenConns <= 0, "database.max_open_conns must be positive"},
		{db.MaxIdleConns < 0, "database.max_idle_conns cannot be negative"},
		{db.MaxIdleConns > db.MaxOpenConns,
			fmt.Sprintf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)},

		{!slices.Contains([]string{"s3", "filesystem"}, c.Storage.Backend),
			fmt.Sprintf("storage.backend must be s3 or filesystem, got %q", c.Storage.Backend)},
		{c.Storage.Backend == "s3" && c.Storage.Bucket == "", "storage.bucket is required for the s3 backend"},

		{c.Printing.Scale <= 0, "printing.scale must be positive"},
		{c.Printing.JPEGQuality < 1 || c.Printing.JPEGQuality > 100,
			fmt.Sprintf("printing.jpeg_quality must be between 1 and 100, got %d", c.Printing.JPEGQuality)},

		{c.Event.KafkaEnabled && len(c.Event.KafkaBrokers) == 0, "event.kafka_brokers is required when kafka is enabled"},

		{c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1,
			fmt.Sprintf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)},
	}
	if prod {
		pg := db.Driver == "postgres"
		checks = append(checks,
			check{c.JWT.Secret == "", "jwt.secret is required in production"},
			check{c.JWT.Secret != "" && len(c.JWT.Secret) < 32, "jwt.secret must be at least 32 characters in production"},
			check{pg && db.Password == "", "database.password is required in production"},
			check{pg && db.SSLMode == "disable", "database.sslmode cannot be 'disable' in production"},
			check{slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot be '*' in production"},
			check{c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production, traces would carry query parameters"},
		)
	}

	var errs []error
	for _, ch := range checks {
		if ch.failed {
			errs = append(errs, errors.New(ch.err))
		}
	}
	return errors.Join(errs...)
}
