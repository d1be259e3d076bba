// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultIAMURL          = "https://iam.cloud.ibm.com/identity/token"
	DefaultWatsonxRegion   = "eu-de"
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultOpenRouterModel = "deepseek/deepseek-chat"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml over it
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

// DefaultTemperature applies only when the key is absent, so an explicit 0
// selects greedy decoding.
const DefaultTemperature = 0.7

func finish(v *viper.Viper) (*Config, error) {
	v.SetDefault("providers.watsonx.temperature", DefaultTemperature)
	v.SetDefault("providers.openrouter.temperature", DefaultTemperature)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working
// directory, so tests in nested packages see the same file.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values. A placeholder
// whose variable is unset expands to the empty string.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// overrideFromEnv applies the short environment names used by deployments.
// They win over file values.
func overrideFromEnv(cfg *Config) {
	setString := func(dst *string, name string) {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}

	setString(&cfg.Providers.Watsonx.APIKey, "WATSONX_API_KEY")
	setString(&cfg.Providers.Watsonx.DeploymentID, "WATSONX_DEPLOYMENT_ID")
	setString(&cfg.Providers.Watsonx.StreamURL, "WATSONX_STREAM_URL")
	setString(&cfg.Providers.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setString(&cfg.Providers.OpenRouter.Model, "OPENROUTER_MODEL")
	setString(&cfg.Server.FrontendURL, "FRONTEND_URL")
	setString(&cfg.Database.Redis.Address, "REDIS_ADDRESS")
	setString(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Camunda.BrokerAddress, "ZEEBE_ADDRESS")
	setString(&cfg.Integrations.AWS.Region, "AWS_REGION")
	setString(&cfg.Integrations.AWS.SNS.TopicARN, "SNS_TOPIC_ARN")

	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "complaint-router"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "3.0.0"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.FrontendURL == "" {
		cfg.Server.FrontendURL = "*"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120000
	}

	w := &cfg.Providers.Watsonx
	if w.IAMURL == "" {
		w.IAMURL = DefaultIAMURL
	}
	if w.Region == "" {
		w.Region = DefaultWatsonxRegion
	}
	if w.StreamURL == "" && w.DeploymentID != "" {
		w.StreamURL = fmt.Sprintf(
			"https://%s.ml.cloud.ibm.com/ml/v4/deployments/%s/ai_service_stream?version=2021-05-01",
			w.Region, w.DeploymentID,
		)
	}
	if w.IAMTimeout == 0 {
		w.IAMTimeout = 30000
	}
	if w.Timeout == 0 {
		w.Timeout = 60000
	}
	if w.MaxTokens == 0 {
		w.MaxTokens = 300
	}

	o := &cfg.Providers.OpenRouter
	if o.BaseURL == "" {
		o.BaseURL = DefaultOpenRouterURL
	}
	if o.Model == "" {
		o.Model = DefaultOpenRouterModel
	}
	if o.Title == "" {
		o.Title = "Samadhan AI"
	}
	if o.Timeout == 0 {
		o.Timeout = 30000
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 500
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 150000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Redis.TokenKey == "" {
		cfg.Database.Redis.TokenKey = "complaint-router:watsonx:token"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 150000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	timeouts := map[string]int{
		"providers.watsonx.iam_timeout": cfg.Providers.Watsonx.IAMTimeout,
		"providers.watsonx.timeout":     cfg.Providers.Watsonx.Timeout,
		"providers.openrouter.timeout":  cfg.Providers.OpenRouter.Timeout,
	}
	for key, ms := range timeouts {
		if ms <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	if cfg.Integrations.AWS.SNS.Enabled && cfg.Integrations.AWS.SNS.TopicARN == "" {
		return fmt.Errorf("integrations.aws.sns.topic_arn is required when sns is enabled")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       150000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
