package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfigForTest() *Config {
	return &Config{
		Env:                       "production",
		DatabaseDriver:            DatabaseDriverPostgres,
		DatabaseURL:               "postgres://x",
		MediaDriver:               MediaDriverMinIO,
		MinIOEndpoint:             "minio:9000",
		MinIOAccessKey:            "catalog",
		MinIOSecretKey:            "catalog-secret",
		MediaBucket:               "product-images",
		MediaMaxImageBytes:        5 << 20,
		MediaMaxImagesPerRequest:  10,
		MediaUploadConcurrency:    4,
		APIRateLimitPerMin:        120,
		HTTPReadTimeout:           30 * time.Second,
		HTTPWriteTimeout:          time.Minute,
		ShutdownTimeout:           20 * time.Second,
		OTELExporterOTLPEndpoint:  "otel:4317",
		OTELTraceSamplingRatio:    1.0,
		OTELMetricsExportInterval: 10 * time.Second,
		OTELLogLevel:              "info",
	}
}

func TestValidateAcceptsProductionProfile(t *testing.T) {
	if err := validConfigForTest().Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
}

func TestValidateRejectsInvalidDriversAndLimits(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown database driver", func(c *Config) { c.DatabaseDriver = "cassandra" }, "DATABASE_DRIVER"},
		{"postgres without url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"mongo without database", func(c *Config) { c.DatabaseDriver = DatabaseDriverMongo; c.MongoURI = "mongodb://x"; c.MongoDatabase = "" }, "MONGO_DATABASE"},
		{"unknown media driver", func(c *Config) { c.MediaDriver = "ftp" }, "MEDIA_DRIVER"},
		{"minio without credentials", func(c *Config) { c.MinIOSecretKey = "" }, "MINIO_ACCESS_KEY"},
		{"zero concurrency", func(c *Config) { c.MediaUploadConcurrency = 0 }, "MEDIA_UPLOAD_CONCURRENCY"},
		{"cache without redis in prod", func(c *Config) { c.ProductCacheEnabled = true; c.ProductCacheTTL = time.Second }, "REDIS_ADDR"},
		{"sqlite in prod", func(c *Config) { c.DatabaseDriver = DatabaseDriverSQLite }, "sqlite"},
		{"default minio credentials in prod", func(c *Config) { c.MinIOAccessKey = "minioadmin" }, "default credentials"},
		{"bad log level", func(c *Config) { c.OTELLogLevel = "trace" }, "OTEL_LOG_LEVEL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfigForTest()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateDevelopmentAllowsSQLiteAndLocalRedisDefaults(t *testing.T) {
	cfg := validConfigForTest()
	cfg.Env = "development"
	cfg.DatabaseDriver = DatabaseDriverSQLite
	cfg.DatabaseURL = "file:catalog.db"
	cfg.MinIOAccessKey = "minioadmin"
	cfg.ProductCacheEnabled = true
	cfg.ProductCacheTTL = time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected relaxed dev validation to pass: %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_DRIVER", "MONGO")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	t.Setenv("MINIO_SECRET_KEY", "minioadmin")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("PRODUCT_CACHE_TTL", "45s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.UsesMongo() {
		t.Fatalf("expected mongo driver, got %q", cfg.DatabaseDriver)
	}
	if cfg.MediaPublicBaseURL != "http://minio:9000" {
		t.Fatalf("unexpected public base url %q", cfg.MediaPublicBaseURL)
	}
	if cfg.ProductCacheTTL != 45*time.Second {
		t.Fatalf("unexpected cache ttl %v", cfg.ProductCacheTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MultipartBodyLimit() != int64(10)*(5<<20)+1<<20 {
		t.Fatalf("unexpected multipart body limit %d", cfg.MultipartBodyLimit())
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("MINIO_ACCESS_KEY", "a")
	t.Setenv("MINIO_SECRET_KEY", "b")
	t.Setenv("HTTP_READ_TIMEOUT", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "HTTP_READ_TIMEOUT") {
		t.Fatalf("expected duration parse error, got %v", err)
	}
}

func TestLoadEnvFilePreservesExistingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CATALOG_TEST_A=from-file\nCATALOG_TEST_B=\"quoted\"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CATALOG_TEST_A", "from-env")
	t.Setenv("CATALOG_TEST_B", "")
	_ = os.Unsetenv("CATALOG_TEST_B")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("CATALOG_TEST_A"); got != "from-env" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
	if got := os.Getenv("CATALOG_TEST_B"); got != "quoted" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}
