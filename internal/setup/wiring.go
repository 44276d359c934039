package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/webpuppy/webhound-go/internal/client"
	"github.com/webpuppy/webhound-go/internal/config"
	"github.com/webpuppy/webhound-go/internal/health"
	"github.com/webpuppy/webhound-go/internal/poller"
	"github.com/webpuppy/webhound-go/internal/validation"
)

type Config struct {
	BaseURL             string
	PollInterval        time.Duration
	MaxPollDuration     time.Duration
	HealthCheckInterval time.Duration
	LogLevel            string

	// Stub server only.
	StubPort        int
	ProcessingDelay time.Duration
}

type Dependencies struct {
	Client    *client.Client
	Validator *validation.Validator
	Poller    *poller.Poller
	Monitor   *health.Monitor
	Logger    *zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:             getEnv("WEBHOUND_BASE_URL", "http://localhost:8000"),
		PollInterval:        getEnvDuration("WEBHOUND_POLL_INTERVAL", 2*time.Second),
		MaxPollDuration:     getEnvDuration("WEBHOUND_MAX_POLL_DURATION", 5*time.Minute),
		HealthCheckInterval: getEnvDuration("WEBHOUND_HEALTH_INTERVAL", 60*time.Second),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StubPort:            getEnvInt("WEBHOUND_STUB_PORT", 8000),
		ProcessingDelay:     getEnvDuration("WEBHOUND_STUB_PROCESSING_DELAY", 8*time.Second),
	}
}

func Wire(cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	rules, err := config.LoadRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load validation rules: %w", err)
	}

	apiClient, err := client.NewClient(cfg.BaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	jobPoller := poller.New(apiClient, poller.Options{
		Interval:    cfg.PollInterval,
		MaxDuration: cfg.MaxPollDuration,
	}, logger)

	monitor := health.NewMonitor(apiClient, cfg.HealthCheckInterval, logger)

	return &Dependencies{
		Client:    apiClient,
		Validator: validation.NewValidator(rules),
		Poller:    jobPoller,
		Monitor:   monitor,
		Logger:    logger,
	}, nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		value = defaultValue
	}

	return value
}
