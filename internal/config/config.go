package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverMongo    = "mongo"

	MediaDriverMinIO = "minio"
	MediaDriverS3    = "s3"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseDriver string
	DatabaseURL    string
	MongoURI       string
	MongoDatabase  string

	MediaDriver              string
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MediaBucket              string
	MediaPublicBaseURL       string
	AWSRegion                string
	S3Endpoint               string
	MediaMaxImageBytes       int64
	MediaMaxImagesPerRequest int
	MediaUploadConcurrency   int

	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ProductCacheEnabled   bool
	ProductCacheTTL       time.Duration
	RateLimitRedisEnabled bool
	RateLimitRedisPrefix  string
	APIRateLimitPerMin    int
	CORSAllowedOrigins    []string

	HTTPReadTimeout              time.Duration
	HTTPWriteTimeout             time.Duration
	ReadinessProbeTimeout        time.Duration
	ReadinessStartGracePeriod    time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

// LoadEnvFile loads KEY=VALUE pairs from path without overriding variables
// already present in the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	mediaDriver := strings.ToLower(getEnv("MEDIA_DRIVER", MediaDriverMinIO))
	mediaEndpoint := getEnv("MINIO_ENDPOINT", "localhost:9000")
	useSSL := getEnvBool("MINIO_USE_SSL", false)
	publicBaseURL := ""
	if mediaDriver == MediaDriverMinIO {
		publicBaseURL = defaultPublicBaseURL(mediaEndpoint, useSSL)
	}

	cfg := &Config{
		Env:      env,
		HTTPPort: getEnv("HTTP_PORT", getEnv("PORT", "8080")),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DatabaseDriverPostgres)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "catalog"),

		MediaDriver:              mediaDriver,
		MinIOEndpoint:            mediaEndpoint,
		MinIOAccessKey:           os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:           os.Getenv("MINIO_SECRET_KEY"),
		MinIOUseSSL:              useSSL,
		MediaBucket:              getEnv("MEDIA_BUCKET", "product-images"),
		MediaPublicBaseURL:       strings.TrimRight(getEnv("MEDIA_PUBLIC_BASE_URL", publicBaseURL), "/"),
		AWSRegion:                getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:               os.Getenv("S3_ENDPOINT"),
		MediaMaxImageBytes:       int64(getEnvInt("MEDIA_MAX_IMAGE_BYTES", 5*1024*1024)),
		MediaMaxImagesPerRequest: getEnvInt("MEDIA_MAX_IMAGES_PER_REQUEST", 10),
		MediaUploadConcurrency:   getEnvInt("MEDIA_UPLOAD_CONCURRENCY", 4),

		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		ProductCacheEnabled:   getEnvBool("PRODUCT_CACHE_ENABLED", false),
		RateLimitRedisEnabled: getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisPrefix:  getEnv("RATE_LIMIT_REDIS_PREFIX", "catalog_rl"),
		APIRateLimitPerMin:    getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		CORSAllowedOrigins:    splitCSV(getEnv("CORS_ALLOWED_ORIGINS", getEnv("FRONT_URL", "http://localhost:5173"))),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "product-media-catalog"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"PRODUCT_CACHE_TTL", "30s", &cfg.ProductCacheTTL},
		{"HTTP_READ_TIMEOUT", "30s", &cfg.HTTPReadTimeout},
		{"HTTP_WRITE_TIMEOUT", "60s", &cfg.HTTPWriteTimeout},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"READINESS_START_GRACE_PERIOD", "0s", &cfg.ReadinessStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	switch c.DatabaseDriver {
	case DatabaseDriverPostgres, DatabaseDriverSQLite:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for DATABASE_DRIVER="+c.DatabaseDriver)
		}
	case DatabaseDriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, "MONGO_URI is required for DATABASE_DRIVER=mongo")
		}
		if c.MongoDatabase == "" {
			errs = append(errs, "MONGO_DATABASE is required for DATABASE_DRIVER=mongo")
		}
	default:
		errs = append(errs, "DATABASE_DRIVER must be one of postgres, sqlite, mongo")
	}
	switch c.MediaDriver {
	case MediaDriverMinIO:
		if c.MinIOEndpoint == "" {
			errs = append(errs, "MINIO_ENDPOINT is required for MEDIA_DRIVER=minio")
		}
		if c.MinIOAccessKey == "" || c.MinIOSecretKey == "" {
			errs = append(errs, "MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for MEDIA_DRIVER=minio")
		}
	case MediaDriverS3:
		if c.AWSRegion == "" {
			errs = append(errs, "AWS_REGION is required for MEDIA_DRIVER=s3")
		}
	default:
		errs = append(errs, "MEDIA_DRIVER must be one of minio, s3")
	}
	if c.MediaBucket == "" {
		errs = append(errs, "MEDIA_BUCKET is required")
	}
	if c.MediaMaxImageBytes <= 0 {
		errs = append(errs, "MEDIA_MAX_IMAGE_BYTES must be > 0")
	}
	if c.MediaMaxImagesPerRequest <= 0 {
		errs = append(errs, "MEDIA_MAX_IMAGES_PER_REQUEST must be > 0")
	}
	if c.MediaUploadConcurrency <= 0 {
		errs = append(errs, "MEDIA_UPLOAD_CONCURRENCY must be > 0")
	}
	if (c.ProductCacheEnabled || c.RateLimitRedisEnabled) && c.RedisAddr == "" && !isLocalLikeEnv(c.Env) {
		errs = append(errs, "REDIS_ADDR is required when PRODUCT_CACHE_ENABLED or RATE_LIMIT_REDIS_ENABLED is set")
	}
	if c.ProductCacheEnabled && c.ProductCacheTTL <= 0 {
		errs = append(errs, "PRODUCT_CACHE_TTL must be > 0 when PRODUCT_CACHE_ENABLED=true")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.HTTPReadTimeout <= 0 || c.HTTPWriteTimeout <= 0 {
		errs = append(errs, "HTTP_READ_TIMEOUT and HTTP_WRITE_TIMEOUT must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be > 0")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if !isLocalLikeEnv(c.Env) {
		if c.MediaDriver == MediaDriverMinIO && c.MinIOAccessKey == "minioadmin" {
			errs = append(errs, "MINIO_ACCESS_KEY must not use the default credentials outside local environments")
		}
		if c.DatabaseDriver == DatabaseDriverSQLite {
			errs = append(errs, "DATABASE_DRIVER=sqlite is only supported in local environments")
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// UsesMongo reports whether products are kept in the document store.
func (c *Config) UsesMongo() bool {
	return c.DatabaseDriver == DatabaseDriverMongo
}

// MultipartBodyLimit bounds product write requests that carry image files.
func (c *Config) MultipartBodyLimit() int64 {
	return int64(c.MediaMaxImagesPerRequest)*c.MediaMaxImageBytes + 1<<20
}

func defaultPublicBaseURL(endpoint string, useSSL bool) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return scheme + "://" + endpoint
}

func isLocalLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
