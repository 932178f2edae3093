package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/seatemp/sea-temperature/internal/secrets"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Copernicus CopernicusConfig
	SST        SSTConfig
	Refresh    RefreshConfig
	Retention  RetentionConfig
	Preload    PreloadConfig
	ApiKey     ApiKeyConfig
	Storage    StorageConfig
	Cache      CacheConfig
	Secrets    SecretsConfig
	Logging    LoggingConfig
	Server     ServerConfig
	CORS       CORSConfig
	Security   SecurityConfig
	RateLimit  RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

// DatabaseConfig selects the tile cache backend. Driver is "sqlite" (Path is used)
// or "postgres" (Host..SSLMode are used).
type DatabaseConfig struct {
	Driver          string
	Path            string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	BusyTimeoutMs   int
}

// CopernicusConfig holds the upstream SST source settings
type CopernicusConfig struct {
	BaseURL   string
	DatasetID string
	// Variable forces the data variable; empty picks the first known SST column
	Variable string
	Username string
	Password string
	// Lon360 requests longitudes in [0, 360) instead of [-180, 180)
	Lon360         bool
	RequestTimeout int
	MaxRetries     int
}

// SSTConfig holds point query limits
type SSTConfig struct {
	DefaultRadiusKm    float64
	MaxRadiusKm        float64
	MaxTilesPerRequest int
	// RefreshConcurrency bounds parallel tile fetches for refresh and preload
	RefreshConcurrency int
}

// RefreshConfig controls the in-process daily refresh job
type RefreshConfig struct {
	Enabled    bool
	Cron       string
	OnStartup  bool
	TimeoutMin int
}

// RetentionConfig controls pruning of old cached days. Days of 0 disables pruning.
type RetentionConfig struct {
	Days int
	Cron string
}

// PreloadConfig is the default region warmed by "sstctl preload"
type PreloadConfig struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

type ApiKeyConfig struct {
	SecretName string
	Value      string // Loaded from secrets or environment
}

// StorageConfig configures the raw tile archive. Mode "none" disables archiving.
type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MinioEndpoint         string
	MinioAccessKey        string
	MinioSecretKey        string
	MinioBucket           string
	MinioUseSSL           bool
}

// CacheConfig configures the point result cache. Mode is "none" or "redis".
type CacheConfig struct {
	Mode          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           int // seconds
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	// Use "*" to allow all origins
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	// WhitelistIPs is a list of IPs that bypass rate limiting
	WhitelistIPs []string
	// WhitelistPaths is a list of paths that bypass rate limiting (e.g., /health)
	WhitelistPaths []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// RequestTimeoutDuration returns the upstream request timeout as duration
func (c *CopernicusConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// HasCredentials reports whether both Copernicus credentials are set
func (c *CopernicusConfig) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// TimeoutDuration returns the refresh job timeout as duration
func (r *RefreshConfig) TimeoutDuration() time.Duration {
	return time.Duration(r.TimeoutMin) * time.Minute
}

// TTLDuration returns the cache TTL as duration
func (c *CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	return &cfg, nil
}

// bindLegacyEnv maps the variable names used by existing deployments onto config keys
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("database.path", "SST_DB_PATH", "DATABASE_PATH")
	_ = v.BindEnv("copernicus.username", "COPERNICUSMARINE_USERNAME", "COPERNICUS_USERNAME")
	_ = v.BindEnv("copernicus.password", "COPERNICUSMARINE_PASSWORD", "COPERNICUS_PASSWORD")
	_ = v.BindEnv("app.port", "APP_PORT", "PORT")
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
// Key Vault is used when USE_AZURE_KEY_VAULT=true and the environment is staging or production;
// otherwise secrets come from environment variables already applied by Load.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider (USE_AZURE_KEY_VAULT=true requires valid vault): %w", err)
	}

	if err := ApplySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// SecretSource is the subset of secrets.Provider used to resolve configuration secrets
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

// ApplySecrets overwrites credential fields with values from the secret source.
// Missing optional secrets leave the existing value untouched.
func ApplySecrets(ctx context.Context, cfg *Config, src SecretSource) error {
	user, err := src.GetSecretOrEnv(ctx, "copernicus-username", "COPERNICUSMARINE_USERNAME")
	if err != nil {
		return fmt.Errorf("failed to resolve copernicus username: %w", err)
	}
	cfg.Copernicus.Username = user

	password, err := src.GetSecretOrEnv(ctx, "copernicus-password", "COPERNICUSMARINE_PASSWORD")
	if err != nil {
		return fmt.Errorf("failed to resolve copernicus password: %w", err)
	}
	cfg.Copernicus.Password = password

	if apiKey, err := src.GetSecretOrEnv(ctx, "admin-api-key", "ADMIN_API_KEY"); err == nil && apiKey != "" {
		cfg.ApiKey.Value = apiKey
	}
	if connStr, err := src.GetSecretOrEnv(ctx, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}
	if redisPassword, err := src.GetSecretOrEnv(ctx, "redis-password", "CACHE_REDISPASSWORD"); err == nil && redisPassword != "" {
		cfg.Cache.RedisPassword = redisPassword
	}
	if cfg.Database.Driver == "postgres" {
		if password, err := src.GetSecretOrEnv(ctx, "POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD"); err == nil && password != "" {
			cfg.Database.Password = password
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sea-temperature")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8000)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "/data/sst.sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "sst")
	v.SetDefault("database.user", "sst")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.busyTimeoutMs", 5000)

	v.SetDefault("copernicus.baseURL", "https://coastwatch.pfeg.noaa.gov/erddap")
	v.SetDefault("copernicus.datasetID", "METOFFICE-GLO-SST-L4-NRT-OBS-SST-V2")
	v.SetDefault("copernicus.variable", "")
	v.SetDefault("copernicus.username", "")
	v.SetDefault("copernicus.password", "")
	v.SetDefault("copernicus.lon360", true)
	v.SetDefault("copernicus.requestTimeout", 60)
	v.SetDefault("copernicus.maxRetries", 3)

	v.SetDefault("sst.defaultRadiusKm", 3.0)
	v.SetDefault("sst.maxRadiusKm", 100.0)
	v.SetDefault("sst.maxTilesPerRequest", 6)
	v.SetDefault("sst.refreshConcurrency", 4)

	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.cron", "0 30 2 * * *") // 02:30:00 UTC daily
	v.SetDefault("refresh.onStartup", false)
	v.SetDefault("refresh.timeoutMin", 60)

	v.SetDefault("retention.days", 14)
	v.SetDefault("retention.cron", "0 0 4 * * *")

	// Mediterranean
	v.SetDefault("preload.minLat", 30.0)
	v.SetDefault("preload.maxLat", 46.0)
	v.SetDefault("preload.minLon", -10.0)
	v.SetDefault("preload.maxLon", 40.0)

	v.SetDefault("apiKey.secretName", "admin-api-key")
	v.SetDefault("apiKey.value", "")

	v.SetDefault("storage.mode", "none")
	v.SetDefault("storage.localBasePath", "./archive")
	v.SetDefault("storage.cloudConnectionString", "")
	v.SetDefault("storage.cloudContainer", "sst-tiles")
	v.SetDefault("storage.minioEndpoint", "localhost:9000")
	v.SetDefault("storage.minioAccessKey", "")
	v.SetDefault("storage.minioSecretKey", "")
	v.SetDefault("storage.minioBucket", "sst-tiles")
	v.SetDefault("storage.minioUseSSL", false)

	v.SetDefault("cache.mode", "none")
	v.SetDefault("cache.redisAddr", "localhost:6379")
	v.SetDefault("cache.redisPassword", "")
	v.SetDefault("cache.redisDB", 0)
	v.SetDefault("cache.ttl", 3600)

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.keyVaultName", "")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 120) // first request for a tile waits on the upstream fetch
	v.SetDefault("server.requestTimeout", 110)
	v.SetDefault("server.enableSwagger", true)

	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"X-Request-ID"})
	v.SetDefault("cors.allowCredentials", false)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	// The map page loads Leaflet and OSM tiles from public CDNs
	v.SetDefault("security.contentSecurityPolicy",
		"default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data: https://unpkg.com https://*.tile.openstreetmap.org")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(self), microphone=(), camera=()")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready", "/static/*"})
}
