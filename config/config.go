package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	dbconfig "github.com/initia-labs/transfervolume/orm/config"
	"github.com/initia-labs/transfervolume/types"
)

var (
	Version    = "dev"
	CommitHash = "unknown"

	// Singleton instance
	configInstance *Config
	configOnce     sync.Once
)

// Default configuration constants
const (
	// Port settings
	DefaultAPIPort     = "8080"
	DefaultMetricsPort = "9090"
	MinPortNumber      = 1
	MaxPortNumber      = 65535

	// Database settings
	DefaultDBMaxConns  = 0 // 0 means unlimited (GORM default)
	DefaultDBIdleConns = 2 // GORM default
	DefaultDBBatchSize = 100

	// Metadata cache settings
	DefaultMetadataCacheSize  = 10240
	DefaultMetadataFailureTTL = 10 * time.Minute
	DefaultMetadataRedisTTL   = 24 * time.Hour

	// Timeout and interval settings
	DefaultQueryTimeout    = 30 * time.Second
	DefaultPollingInterval = 3 * time.Second

	// Concurrent request settings
	DefaultMaxConcurrentRequests = 50
	MaxAllowedConcurrentRequests = 1000

	// Metrics settings
	DefaultMetricsPath = "/metrics"

	// Default address prefix
	DefaultAccountAddressPrefix = "init"

	// Default environment
	DefaultEnvironment = "local"

	// StartHeightLatest makes the indexer start from the chain head
	StartHeightLatest = "latest"
)

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	Port    string `json:"port"`
}

// MetadataConfig contains configuration for the token metadata resolver
type MetadataConfig struct {
	CacheSize  int           `json:"cache_size"`
	FailureTTL time.Duration `json:"failure_ttl"` // how long a failed lookup is not retried
	RedisUrl   string        `json:"redis_url"`   // optional shared cache tier
	RedisTTL   time.Duration `json:"redis_ttl"`
}

// SentryConfig contains configuration for Sentry integration
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	SampleRate       float64 `json:"sample_rate"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Environment      string  `json:"environment"`
}

func SetBuildInfo(v, commit string) {
	Version = v
	CommitHash = commit
}

type Config struct {
	listenPort            string
	dbConfig              *dbconfig.Config
	chainConfig           *ChainConfig
	logLevel              string
	logFormat             string
	queryTimeout          time.Duration // for indexer only
	maxConcurrentRequests int           // for indexer only
	pollingInterval       time.Duration // for indexer only
	nameFilter            string
	metadataConfig        *MetadataConfig
	metricsConfig         *MetricsConfig
	sentryConfig          *SentryConfig

	// Start height configuration
	startHeight       int64 // explicit start height when set
	startHeightSet    bool  // whether START_HEIGHT was provided
	startHeightLatest bool  // START_HEIGHT=latest
}

func setDefaults() {
	viper.SetDefault("PORT", DefaultAPIPort)
	viper.SetDefault("DB_AUTO_MIGRATE", false)
	viper.SetDefault("DB_BATCH_SIZE", DefaultDBBatchSize)
	viper.SetDefault("DB_MAX_CONNS", DefaultDBMaxConns)
	viper.SetDefault("DB_IDLE_CONNS", DefaultDBIdleConns)
	viper.SetDefault("DB_MIGRATION_DIR", "orm/migrations")
	viper.SetDefault("ACCOUNT_ADDRESS_PREFIX", DefaultAccountAddressPrefix)
	viper.SetDefault("QUERY_TIMEOUT", DefaultQueryTimeout)
	viper.SetDefault("MAX_CONCURRENT_REQUESTS", DefaultMaxConcurrentRequests)
	viper.SetDefault("POLLING_INTERVAL", DefaultPollingInterval)
	viper.SetDefault("LOG_LEVEL", "warn")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("NAME_FILTER", types.DefaultNameFilter)
	viper.SetDefault("METADATA_CACHE_SIZE", DefaultMetadataCacheSize)
	viper.SetDefault("METADATA_FAILURE_TTL", DefaultMetadataFailureTTL)
	viper.SetDefault("METADATA_REDIS_TTL", DefaultMetadataRedisTTL)
	viper.SetDefault("METRICS_ENABLED", false)
	viper.SetDefault("METRICS_PATH", DefaultMetricsPath)
	viper.SetDefault("METRICS_PORT", DefaultMetricsPort)
	viper.SetDefault("ENVIRONMENT", DefaultEnvironment)

	// Sentry defaults
	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("SENTRY_SAMPLE_RATE", 0.01)
	viper.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 0.01)

	//  CHAIN_ID, REST_URL, JSON_RPC_URL and REDIS_URL have no defaults
}

func GetConfig() (*Config, error) {
	var err error

	configOnce.Do(func() {
		configInstance, err = loadConfig()
	})

	return configInstance, err
}

func loadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// just log without panic, local testing purpose only
		fmt.Fprintln(os.Stderr, "No .env file found")
	}
	viper.AutomaticEnv()
	setDefaults()

	dc := &dbconfig.Config{
		DSN:          viper.GetString("DB_DSN"),
		AutoMigrate:  viper.GetBool("DB_AUTO_MIGRATE"),
		MaxConns:     viper.GetInt("DB_MAX_CONNS"),
		IdleConns:    viper.GetInt("DB_IDLE_CONNS"),
		BatchSize:    viper.GetInt("DB_BATCH_SIZE"),
		MigrationDir: viper.GetString("DB_MIGRATION_DIR"),
	}

	cc := &ChainConfig{
		ChainId:              viper.GetString("CHAIN_ID"),
		RestUrls:             splitUrls(viper.GetString("REST_URL")),
		JsonRpcUrls:          splitUrls(viper.GetString("JSON_RPC_URL")),
		AccountAddressPrefix: viper.GetString("ACCOUNT_ADDRESS_PREFIX"),
		Environment:          viper.GetString("ENVIRONMENT"),
	}

	config := &Config{
		listenPort:            viper.GetString("PORT"),
		dbConfig:              dc,
		chainConfig:           cc,
		logLevel:              viper.GetString("LOG_LEVEL"),
		logFormat:             viper.GetString("LOG_FORMAT"),
		queryTimeout:          viper.GetDuration("QUERY_TIMEOUT"),
		maxConcurrentRequests: viper.GetInt("MAX_CONCURRENT_REQUESTS"),
		pollingInterval:       viper.GetDuration("POLLING_INTERVAL"),
		nameFilter:            viper.GetString("NAME_FILTER"),
		metadataConfig: &MetadataConfig{
			CacheSize:  viper.GetInt("METADATA_CACHE_SIZE"),
			FailureTTL: viper.GetDuration("METADATA_FAILURE_TTL"),
			RedisUrl:   viper.GetString("REDIS_URL"),
			RedisTTL:   viper.GetDuration("METADATA_REDIS_TTL"),
		},
		metricsConfig: &MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
			Path:    viper.GetString("METRICS_PATH"),
			Port:    viper.GetString("METRICS_PORT"),
		},
		sentryConfig: &SentryConfig{
			DSN:              viper.GetString("SENTRY_DSN"),
			SampleRate:       viper.GetFloat64("SENTRY_SAMPLE_RATE"),
			TracesSampleRate: viper.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
			Environment:      viper.GetString("ENVIRONMENT"),
		},
	}

	if err := config.parseStartHeight(viper.GetString("START_HEIGHT")); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// initialize sdk
	InitializeSDKConfig(cc.AccountAddressPrefix)

	return config, nil
}

// parseStartHeight accepts an integer >= 0 or "latest". Empty means unset.
func (c *Config) parseStartHeight(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.EqualFold(raw, StartHeightLatest) {
		c.startHeightSet = true
		c.startHeightLatest = true
		return nil
	}

	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val < 0 {
		return types.NewInvalidValueError("START_HEIGHT", raw, "must be a non-negative integer or 'latest'")
	}
	c.startHeight = val
	c.startHeightSet = true
	return nil
}

func splitUrls(raw string) []string {
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func (c Config) GetListenPort() string {
	return c.listenPort
}

// SetDBConfig assigns the DB config for testing purposes.
func (c *Config) SetDBConfig(dbCfg *dbconfig.Config) {
	c.dbConfig = dbCfg
}

func (c Config) GetDBConfig() *dbconfig.Config {
	return c.dbConfig
}

// SetChainConfig assigns the chain config for testing purposes.
func (c *Config) SetChainConfig(chainCfg *ChainConfig) {
	c.chainConfig = chainCfg
}

func (c Config) GetChainConfig() *ChainConfig {
	return c.chainConfig
}

// SetMetadataConfig assigns the metadata config for testing purposes.
func (c *Config) SetMetadataConfig(metadataCfg *MetadataConfig) {
	c.metadataConfig = metadataCfg
}

func (c Config) GetMetadataConfig() *MetadataConfig {
	return c.metadataConfig
}

// SetNameFilter assigns the name filter for testing purposes.
func (c *Config) SetNameFilter(filter string) {
	c.nameFilter = filter
}

func (c Config) GetNameFilter() string {
	if c.nameFilter == "" {
		return types.DefaultNameFilter
	}
	return c.nameFilter
}

func (c Config) GetDBBatchSize() int {
	return c.dbConfig.BatchSize
}

func (c Config) GetPollingInterval() time.Duration {
	return c.pollingInterval
}

// SetPollingInterval assigns the polling interval for testing purposes.
func (c *Config) SetPollingInterval(interval time.Duration) {
	c.pollingInterval = interval
}

func (c Config) GetChainId() string {
	return c.chainConfig.ChainId
}

func (c Config) GetSentryConfig() *SentryConfig {
	if c.sentryConfig == nil || c.sentryConfig.DSN == "" {
		return nil
	}
	return c.sentryConfig
}

func (c Config) GetLogLevel() slog.Level {
	switch c.logLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func (c Config) GetQueryTimeout() time.Duration {
	return c.queryTimeout
}

func (c Config) GetMaxConcurrentRequests() int {
	return c.maxConcurrentRequests
}

func (c Config) GetMetricsConfig() *MetricsConfig {
	return c.metricsConfig
}

func (c Config) GetLogFormat() string {
	if c.logFormat == "json" {
		return "json"
	}
	return "plain"
}

// Start height accessors
func (c Config) StartHeightSet() bool {
	return c.startHeightSet
}

func (c Config) StartHeightLatest() bool {
	return c.startHeightLatest
}

func (c Config) GetStartHeight() int64 {
	return c.startHeight
}

func (c Config) Validate() error {
	if err := c.validatePort(); err != nil {
		return err
	}
	if err := c.validateLogSettings(); err != nil {
		return err
	}
	if err := c.validateNumericSettings(); err != nil {
		return err
	}
	if err := c.validateMetadataConfig(); err != nil {
		return err
	}
	if err := c.validateMetricsConfig(); err != nil {
		return err
	}
	if err := c.validateSubConfigs(); err != nil {
		return err
	}
	return nil
}

// validatePort validates the listen port configuration
func (c Config) validatePort() error {
	if len(c.listenPort) == 0 {
		return types.NewValidationError("PORT", "required field is missing")
	}
	if port, err := strconv.Atoi(c.listenPort); err != nil || port < MinPortNumber || port > MaxPortNumber {
		return types.NewValidationError("PORT", fmt.Sprintf("must be a valid port number (%d-%d)", MinPortNumber, MaxPortNumber))
	}
	return nil
}

// validateLogSettings validates log format and level configuration
func (c Config) validateLogSettings() error {
	switch c.logFormat {
	case "json", "plain":
		break
	default:
		return types.NewValidationError("LOG_FORMAT", fmt.Sprintf("invalid value '%s', must be 'json' or 'plain'", c.logFormat))
	}

	switch c.logLevel {
	case "debug", "info", "warn", "error":
		break
	default:
		return types.NewValidationError("LOG_LEVEL", fmt.Sprintf("invalid value '%s', must be one of: debug, info, warn, error", c.logLevel))
	}
	return nil
}

// validateNumericSettings validates all numeric configuration values
func (c Config) validateNumericSettings() error {
	if c.pollingInterval <= 0 {
		return types.NewValidationError("POLLING_INTERVAL", "must be positive")
	}
	if c.queryTimeout <= 0 {
		return types.NewValidationError("QUERY_TIMEOUT", "must be positive")
	}
	if c.maxConcurrentRequests < 1 {
		return types.NewValidationError("MAX_CONCURRENT_REQUESTS", "must be at least 1")
	}
	if c.maxConcurrentRequests > MaxAllowedConcurrentRequests {
		return types.NewInvalidValueError("MAX_CONCURRENT_REQUESTS", fmt.Sprintf("%d", c.maxConcurrentRequests), fmt.Sprintf("must not exceed %d", MaxAllowedConcurrentRequests))
	}
	if strings.TrimSpace(c.nameFilter) == "" {
		return types.NewValidationError("NAME_FILTER", "must not be empty")
	}
	return nil
}

// validateMetadataConfig validates the token metadata resolver configuration
func (c Config) validateMetadataConfig() error {
	if c.metadataConfig == nil {
		return types.NewValidationError("METADATA_CACHE_SIZE", "metadata config is missing")
	}
	if c.metadataConfig.CacheSize < 1 {
		return types.NewValidationError("METADATA_CACHE_SIZE", "must be at least 1")
	}
	if c.metadataConfig.FailureTTL < 0 {
		return types.NewValidationError("METADATA_FAILURE_TTL", "must be non-negative")
	}
	if c.metadataConfig.RedisUrl != "" && c.metadataConfig.RedisTTL <= 0 {
		return types.NewValidationError("METADATA_REDIS_TTL", "must be positive when REDIS_URL is set")
	}
	return nil
}

// validateMetricsConfig validates metrics configuration
func (c Config) validateMetricsConfig() error {
	if c.metricsConfig != nil && c.metricsConfig.Enabled {
		if err := c.validateMetricsPort(); err != nil {
			return err
		}
		if err := c.validateMetricsPath(); err != nil {
			return err
		}
	}
	return nil
}

// validateMetricsPort validates the metrics port configuration
func (c Config) validateMetricsPort() error {
	if port, err := strconv.Atoi(c.metricsConfig.Port); err != nil || port < MinPortNumber || port > MaxPortNumber {
		return types.NewValidationError("METRICS_PORT", fmt.Sprintf("must be a valid port number (%d-%d)", MinPortNumber, MaxPortNumber))
	}
	if c.metricsConfig.Port == c.listenPort {
		return types.NewValidationError("METRICS_PORT", fmt.Sprintf("metrics port %s conflicts with API port", c.metricsConfig.Port))
	}
	return nil
}

// validateMetricsPath validates the metrics path configuration
func (c Config) validateMetricsPath() error {
	if c.metricsConfig.Path == "" || c.metricsConfig.Path[0] != '/' {
		return types.NewValidationError("METRICS_PATH", "must start with '/'")
	}
	return nil
}

// validateSubConfigs validates nested configuration objects
func (c Config) validateSubConfigs() error {
	if err := c.dbConfig.Validate(); err != nil {
		return err
	}
	if err := c.chainConfig.Validate(); err != nil {
		return err
	}
	return nil
}
