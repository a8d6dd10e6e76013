package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Event     EventConfig
	Shop      ShopConfig
	Mail      MailConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
	Invoice   InvoiceConfig
	Payment   PaymentConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the app runs with production rules
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	Issuer                 string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration
	IdleTimeout            time.Duration
	MaxHeaderBytes         int
	MaxBodySize            int64
	MaxUploadSize          int64
	RateLimitEnabled       bool
	RateLimitRequests      int
	RateLimitWindow        time.Duration
	AuthRateLimitRequests  int
	AuthRateLimitWindow    time.Duration
	OrderRateLimitRequests int
	OrderRateLimitWindow   time.Duration
	TrustedProxies         []string
	CORSAllowOrigins       []string
	RequestTimeout         time.Duration
}

// EventConfig holds outbox processing configuration
type EventConfig struct {
	ProcessorEnabled bool
	BatchSize        int
	PollInterval     time.Duration
	MaxRetries       int
	CleanupEnabled   bool
	CleanupRetention time.Duration
	IdempotencyTTL   time.Duration
	ClaimTimeout     time.Duration
}

// ShopConfig holds pricing rules and business limits
type ShopConfig struct {
	Currency              string
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
	MaxLoginAttempts      int
	LockoutDuration       time.Duration
	PendingOrderTTL       time.Duration
	OrderKeyTTL           time.Duration
	NotificationRetention time.Duration
	FeaturedLimit         int
	RelatedLimit          int
	BroadcastBatchSize    int
	FrontendURL           string
}

// MailConfig holds outgoing email settings
type MailConfig struct {
	Driver   string // smtp, log
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicBaseURL   string
	AutoCreate      bool
}

// SchedulerConfig holds cron job settings
type SchedulerConfig struct {
	Enabled               bool
	ExpireOrdersSpec      string
	PurgeNotificationSpec string
	OutboxReportSpec      string
	JobTimeout            time.Duration
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled bool
}

// TelemetryConfig holds OpenTelemetry and profiling configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable tracing
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0)
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
	ProfilingEnabled  bool
	PyroscopeAddress  string
}

// InvoiceConfig holds headless Chrome settings for invoice PDFs
type InvoiceConfig struct {
	Enabled        bool
	RemoteURL      string // ws://host:9222 of a running Chrome; empty launches a local one
	Timeout        time.Duration
	MaxConcurrency int
}

// PaymentConfig holds card payment verification settings
type PaymentConfig struct {
	StripeEnabled   bool
	StripeSecretKey string
	StripeTestMode  bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SHOP_ prefix (e.g., SHOP_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			Issuer:                 v.GetString("jwt.issuer"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:            v.GetDuration("http.read_timeout"),
			WriteTimeout:           v.GetDuration("http.write_timeout"),
			IdleTimeout:            v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:         v.GetInt("http.max_header_bytes"),
			MaxBodySize:            v.GetInt64("http.max_body_size"),
			MaxUploadSize:          v.GetInt64("http.max_upload_size"),
			RateLimitEnabled:       v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:      v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:        v.GetDuration("http.rate_limit_window"),
			AuthRateLimitRequests:  v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:    v.GetDuration("http.auth_rate_limit_window"),
			OrderRateLimitRequests: v.GetInt("http.order_rate_limit_requests"),
			OrderRateLimitWindow:   v.GetDuration("http.order_rate_limit_window"),
			TrustedProxies:         v.GetStringSlice("http.trusted_proxies"),
			CORSAllowOrigins:       v.GetStringSlice("http.cors_allow_origins"),
			RequestTimeout:         v.GetDuration("http.request_timeout"),
		},
		Event: EventConfig{
			ProcessorEnabled: v.GetBool("event.processor_enabled"),
			BatchSize:        v.GetInt("event.batch_size"),
			PollInterval:     v.GetDuration("event.outbox_poll_interval"),
			MaxRetries:       v.GetInt("event.max_retries"),
			CleanupEnabled:   v.GetBool("event.cleanup_enabled"),
			CleanupRetention: v.GetDuration("event.cleanup_retention"),
			IdempotencyTTL:   v.GetDuration("event.idempotency_ttl"),
			ClaimTimeout:     v.GetDuration("event.claim_timeout"),
		},
		Shop: ShopConfig{
			Currency:              v.GetString("shop.currency"),
			FreeShippingThreshold: decimalOrZero(v.GetString("shop.free_shipping_threshold")),
			FlatShippingFee:       decimalOrZero(v.GetString("shop.flat_shipping_fee")),
			TaxRate:               decimalOrZero(v.GetString("shop.tax_rate")),
			MaxLoginAttempts:      v.GetInt("shop.max_login_attempts"),
			LockoutDuration:       v.GetDuration("shop.lockout_duration"),
			PendingOrderTTL:       v.GetDuration("shop.pending_order_ttl"),
			OrderKeyTTL:           v.GetDuration("shop.order_key_ttl"),
			NotificationRetention: v.GetDuration("shop.notification_retention"),
			FeaturedLimit:         v.GetInt("shop.featured_limit"),
			RelatedLimit:          v.GetInt("shop.related_limit"),
			BroadcastBatchSize:    v.GetInt("shop.broadcast_batch_size"),
			FrontendURL:           v.GetString("shop.frontend_url"),
		},
		Mail: MailConfig{
			Driver:   v.GetString("mail.driver"),
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
			From:     v.GetString("mail.from"),
			Timeout:  v.GetDuration("mail.timeout"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			PublicBaseURL:   v.GetString("storage.public_base_url"),
			AutoCreate:      v.GetBool("storage.auto_create"),
		},
		Scheduler: SchedulerConfig{
			Enabled:               v.GetBool("scheduler.enabled"),
			ExpireOrdersSpec:      v.GetString("scheduler.expire_orders_spec"),
			PurgeNotificationSpec: v.GetString("scheduler.purge_notifications_spec"),
			OutboxReportSpec:      v.GetString("scheduler.outbox_report_spec"),
			JobTimeout:            v.GetDuration("scheduler.job_timeout"),
		},
		Swagger: SwaggerConfig{
			Enabled: v.GetBool("swagger.enabled"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeAddress:  v.GetString("telemetry.pyroscope_address"),
		},
		Invoice: InvoiceConfig{
			Enabled:        v.GetBool("invoice.enabled"),
			RemoteURL:      v.GetString("invoice.remote_url"),
			Timeout:        v.GetDuration("invoice.timeout"),
			MaxConcurrency: v.GetInt("invoice.max_concurrency"),
		},
		Payment: PaymentConfig{
			StripeEnabled:   v.GetBool("payment.stripe_enabled"),
			StripeSecretKey: v.GetString("payment.stripe_secret_key"),
			StripeTestMode:  v.GetBool("payment.stripe_test_mode"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shopfront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shopfront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "shopfront.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 15 * time.Minute
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 7 * 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "shopfront"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 20 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 5 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 10
	}
	if cfg.HTTP.AuthRateLimitWindow == 0 {
		cfg.HTTP.AuthRateLimitWindow = time.Minute
	}
	if cfg.HTTP.OrderRateLimitRequests == 0 {
		cfg.HTTP.OrderRateLimitRequests = 20
	}
	if cfg.HTTP.OrderRateLimitWindow == 0 {
		cfg.HTTP.OrderRateLimitWindow = time.Minute
	}

	if cfg.Event.BatchSize == 0 {
		cfg.Event.BatchSize = 100
	}
	if cfg.Event.PollInterval == 0 {
		cfg.Event.PollInterval = 2 * time.Second
	}
	if cfg.Event.MaxRetries == 0 {
		cfg.Event.MaxRetries = 5
	}
	if cfg.Event.CleanupRetention == 0 {
		cfg.Event.CleanupRetention = 7 * 24 * time.Hour
	}
	if cfg.Event.IdempotencyTTL == 0 {
		cfg.Event.IdempotencyTTL = 72 * time.Hour
	}
	if cfg.Event.ClaimTimeout == 0 {
		cfg.Event.ClaimTimeout = 5 * time.Minute
	}

	if cfg.Shop.Currency == "" {
		cfg.Shop.Currency = "USD"
	}
	if cfg.Shop.FreeShippingThreshold.IsZero() {
		cfg.Shop.FreeShippingThreshold = decimal.NewFromInt(100)
	}
	if cfg.Shop.FlatShippingFee.IsZero() {
		cfg.Shop.FlatShippingFee = decimal.NewFromInt(10)
	}
	if cfg.Shop.TaxRate.IsZero() {
		cfg.Shop.TaxRate = decimal.RequireFromString("0.15")
	}
	if cfg.Shop.MaxLoginAttempts == 0 {
		cfg.Shop.MaxLoginAttempts = 5
	}
	if cfg.Shop.LockoutDuration == 0 {
		cfg.Shop.LockoutDuration = 15 * time.Minute
	}
	if cfg.Shop.PendingOrderTTL == 0 {
		cfg.Shop.PendingOrderTTL = 24 * time.Hour
	}
	if cfg.Shop.OrderKeyTTL == 0 {
		cfg.Shop.OrderKeyTTL = 5 * time.Minute
	}
	if cfg.Shop.NotificationRetention == 0 {
		cfg.Shop.NotificationRetention = 90 * 24 * time.Hour
	}
	if cfg.Shop.FeaturedLimit == 0 {
		cfg.Shop.FeaturedLimit = 8
	}
	if cfg.Shop.RelatedLimit == 0 {
		cfg.Shop.RelatedLimit = 4
	}
	if cfg.Shop.BroadcastBatchSize == 0 {
		cfg.Shop.BroadcastBatchSize = 500
	}
	if cfg.Shop.FrontendURL == "" {
		cfg.Shop.FrontendURL = "http://localhost:3000"
	}

	if cfg.Mail.Driver == "" {
		cfg.Mail.Driver = "log"
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Mail.Timeout == 0 {
		cfg.Mail.Timeout = 10 * time.Second
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = "Shopfront <no-reply@shopfront.local>"
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "shopfront-media"
	}

	if cfg.Scheduler.ExpireOrdersSpec == "" {
		cfg.Scheduler.ExpireOrdersSpec = "@every 15m"
	}
	if cfg.Scheduler.PurgeNotificationSpec == "" {
		cfg.Scheduler.PurgeNotificationSpec = "0 3 * * *"
	}
	if cfg.Scheduler.OutboxReportSpec == "" {
		cfg.Scheduler.OutboxReportSpec = "@hourly"
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 5 * time.Minute
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.PyroscopeAddress == "" {
		cfg.Telemetry.PyroscopeAddress = "http://localhost:4040"
	}

	if cfg.Invoice.Timeout == 0 {
		cfg.Invoice.Timeout = 30 * time.Second
	}
	if cfg.Invoice.MaxConcurrency == 0 {
		cfg.Invoice.MaxConcurrency = 2
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Payment.StripeEnabled && c.Payment.StripeSecretKey == "" {
		return fmt.Errorf("payment.stripe_secret_key is required when stripe is enabled")
	}

	switch c.Mail.Driver {
	case "log":
	case "smtp":
		if c.Mail.Host == "" {
			return fmt.Errorf("mail.host is required when mail.driver is smtp")
		}
	default:
		return fmt.Errorf("mail.driver must be smtp or log, got %q", c.Mail.Driver)
	}

	if c.Shop.TaxRate.IsNegative() || c.Shop.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("shop.tax_rate must be between 0 and 1")
	}
	if c.Shop.FlatShippingFee.IsNegative() || c.Shop.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("shop shipping values cannot be negative")
	}

	if c.App.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
