// --- File: notificationservice/config/config.go ---
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-apns-service/internal/platform/apns"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// APNSConfig holds the gateway connection settings. The certificate itself is read from
// CertificateFile at startup and never kept in config.
type APNSConfig struct {
	Environment         apns.Environment
	CertificateFile     string
	CertificatePassword string
	ValidateCertificate bool
	UseAlternatePort    bool
	Topic               string
	MaxConcurrentSends  int
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID              string
	ListenAddr             string
	SubscriptionID         string
	SubscriptionDLQTopicID string
	NumPipelineWorkers     int

	CorsConfig middleware.CorsConfig
	Redis      RedisConfig
	APNS       APNSConfig

	TopicID              string
	PubsubConsumerConfig *messagepipeline.GooglePubsubConsumerConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	if val := os.Getenv("PROJECT_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PROJECT_ID", "source", "env")
		cfg.ProjectID = val
	}
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("SUBSCRIPTION_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_ID", "source", "env")
		cfg.SubscriptionID = val
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(val)
	}
	if val := os.Getenv("SUBSCRIPTION_DLQ_TOPIC_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_DLQ_TOPIC_ID", "source", "env")
		cfg.SubscriptionDLQTopicID = val
	}
	if val := os.Getenv("NUM_PIPELINE_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil && workers > 0 {
			logger.Debug("Overriding config value", "key", "NUM_PIPELINE_WORKERS", "source", "env")
			cfg.NumPipelineWorkers = workers
		}
	}

	// Redis Overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}

	// APNS Overrides
	if val := os.Getenv("APNS_ENVIRONMENT"); val != "" {
		env, err := apns.ParseEnvironment(val)
		if err != nil {
			return nil, fmt.Errorf("APNS_ENVIRONMENT: %w", err)
		}
		logger.Debug("Overriding config value", "key", "APNS_ENVIRONMENT", "source", "env")
		cfg.APNS.Environment = env
	}
	if val := os.Getenv("APNS_CERT_FILE"); val != "" {
		logger.Debug("Overriding config value", "key", "APNS_CERT_FILE", "source", "env")
		cfg.APNS.CertificateFile = val
	}
	if val := os.Getenv("APNS_CERT_PASSWORD"); val != "" {
		logger.Debug("Overriding config value", "key", "APNS_CERT_PASSWORD", "source", "env")
		cfg.APNS.CertificatePassword = val
	}
	if val := os.Getenv("APNS_VALIDATE_CERT"); val != "" {
		if validate, err := strconv.ParseBool(val); err == nil {
			cfg.APNS.ValidateCertificate = validate
		}
	}
	if val := os.Getenv("APNS_USE_ALTERNATE_PORT"); val != "" {
		if alt, err := strconv.ParseBool(val); err == nil {
			cfg.APNS.UseAlternatePort = alt
		}
	}
	if val := os.Getenv("APNS_TOPIC"); val != "" {
		logger.Debug("Overriding config value", "key", "APNS_TOPIC", "source", "env")
		cfg.APNS.Topic = val
	}
	if val := os.Getenv("APNS_MAX_CONCURRENT_SENDS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.APNS.MaxConcurrentSends = n
		}
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// 2. Final Validation
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.SubscriptionID == "" {
		return nil, fmt.Errorf("subscription_id is required (set via YAML or SUBSCRIPTION_ID env var)")
	}
	if cfg.APNS.CertificateFile == "" {
		return nil, fmt.Errorf("apns.certificate_file is required (set via YAML or APNS_CERT_FILE env var)")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.NumPipelineWorkers <= 0 {
		cfg.NumPipelineWorkers = 1
	}
	if cfg.APNS.MaxConcurrentSends <= 0 {
		cfg.APNS.MaxConcurrentSends = apns.DefaultMaxConcurrentSends
	}

	if cfg.PubsubConsumerConfig == nil && cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("Configuration finalized and validated successfully",
		"apns_environment", cfg.APNS.Environment.String(),
		"apns_alternate_port", cfg.APNS.UseAlternatePort,
	)
	return cfg, nil
}
