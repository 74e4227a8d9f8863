package app

import (
	"os"

	"github.com/shandysiswandi/credvault/internal/pkg/hash"
)

const defaultConfigPath = "./config/config.yaml"

// defaults keep the binary usable without a config file.
var defaults = map[string]any{
	"app.tz":            "UTC",
	"app.max_goroutine": 8,

	"instrument.enabled":                 false,
	"instrument.service_name":            "credvault",
	"instrument.service_version":         "dev",
	"instrument.env":                     "local",
	"instrument.otlp_endpoint":           "localhost:4317",
	"instrument.otlp_secure":             false,
	"instrument.trace_sample_ratio":      1.0,
	"instrument.metric_interval_seconds": 60,
	"instrument.log_level":               "info",

	"redis.url": "redis://localhost:6379/0",

	"storage.driver":              "none",
	"storage.bucket":              "credvault",
	"storage.s3.use_path_style":   false,
	"storage.minio.use_ssl":       false,
	"storage.minio.create_bucket": true,

	"credential.hash.iterations": hash.DefaultPBKDF2Iterations,
	"credential.seed.username":   "admin",
	"credential.seed.password":   "admin",

	"credential.store.driver":                     "file",
	"credential.store.file.path":                  "users.txt",
	"credential.store.file.lock_timeout_seconds":  5,
	"credential.store.file.lock_stale_seconds":    30,
	"credential.store.redis.key":                  "credvault:credentials",
	"credential.store.redis.lock_ttl_seconds":     30,
	"credential.store.redis.lock_timeout_seconds": 5,

	"credential.provision.prefix":          "testuser",
	"credential.provision.max_count":       10000,
	"credential.provision.password_length": 16,

	"credential.backup.prefix": "snapshots",
}

// configPath resolves CONFIG_PATH, falling back to the working directory.
func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultConfigPath
}
