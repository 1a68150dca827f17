// --- File: notificationservice/config/yaml_config.go ---
package config

import (
	"fmt"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-apns-service/internal/platform/apns"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// YamlAPNSConfig leaves ValidateCertificate nil when the key is omitted; validation then stays on.
type YamlAPNSConfig struct {
	Environment         string `yaml:"environment"`
	CertificateFile     string `yaml:"certificate_file"`
	CertificatePassword string `yaml:"certificate_password"`
	ValidateCertificate *bool  `yaml:"validate_certificate"`
	UseAlternatePort    bool   `yaml:"use_alternate_port"`
	Topic               string `yaml:"topic"`
	MaxConcurrentSends  int    `yaml:"max_concurrent_sends"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID              string          `yaml:"project_id"`
	ListenAddr             string          `yaml:"listen_addr"`
	TopicID                string          `yaml:"topic_id"`
	SubscriptionID         string          `yaml:"subscription_id"`
	SubscriptionDLQTopicID string          `yaml:"subscription_dlq_topic_id"`
	CorsConfig             YamlCorsConfig  `yaml:"cors"`
	RedisConfig            YamlRedisConfig `yaml:"redis"`
	APNSConfig             YamlAPNSConfig  `yaml:"apns"`
	NumPipelineWorkers     int             `yaml:"num_pipeline_workers"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	env := apns.Sandbox
	if baseCfg.APNSConfig.Environment != "" {
		parsed, err := apns.ParseEnvironment(baseCfg.APNSConfig.Environment)
		if err != nil {
			return nil, fmt.Errorf("apns.environment: %w", err)
		}
		env = parsed
	}

	validate := true
	if baseCfg.APNSConfig.ValidateCertificate != nil {
		validate = *baseCfg.APNSConfig.ValidateCertificate
	}

	cfg := &Config{
		ProjectID:      baseCfg.ProjectID,
		ListenAddr:     baseCfg.ListenAddr,
		TopicID:        baseCfg.TopicID,
		SubscriptionID: baseCfg.SubscriptionID,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
		},
		APNS: APNSConfig{
			Environment:         env,
			CertificateFile:     baseCfg.APNSConfig.CertificateFile,
			CertificatePassword: baseCfg.APNSConfig.CertificatePassword,
			ValidateCertificate: validate,
			UseAlternatePort:    baseCfg.APNSConfig.UseAlternatePort,
			Topic:               baseCfg.APNSConfig.Topic,
			MaxConcurrentSends:  baseCfg.APNSConfig.MaxConcurrentSends,
		},
		SubscriptionDLQTopicID: baseCfg.SubscriptionDLQTopicID,
		NumPipelineWorkers:     baseCfg.NumPipelineWorkers,
	}

	if cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"subscription_id", cfg.SubscriptionID,
		"apns_environment", cfg.APNS.Environment.String(),
	)

	return cfg, nil
}
