package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/epubalt/pkg/constants"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Providers
	Provider       string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiProject  string
	GeminiLocation string
	LocalURL       string
	LocalModel     string
	LocalAPIKey    string
	LocalAuth      string // header name, or "query:<param>"
	LocalTimeout   time.Duration

	// Batching
	BatchSize      int
	LocalBatchSize int
	BatchDelay     int // milliseconds

	// Storage
	DataDir  string
	Email    string
	Identity string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (~/.epubalt.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix(strings.ToUpper(constants.AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults(v)
	if err := bindAPIKeys(v); err != nil {
		return nil, err
	}

	if configFile := os.Getenv("EPUBALT_CONFIG"); configFile != "" {
		v.SetConfigFile(configFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("." + constants.AppName)
	}

	// Read config file (ignore error if not found)
	_ = v.ReadInConfig()

	return &Config{
		ConfigFile: v.ConfigFileUsed(),

		Provider:       v.GetString("provider"),
		GeminiAPIKey:   v.GetString("gemini_api_key"),
		GeminiModel:    v.GetString("gemini_model"),
		GeminiProject:  v.GetString("gemini_project"),
		GeminiLocation: v.GetString("gemini_location"),
		LocalURL:       v.GetString("local_url"),
		LocalModel:     v.GetString("local_model"),
		LocalAPIKey:    v.GetString("local_api_key"),
		LocalAuth:      v.GetString("local_auth"),
		LocalTimeout:   v.GetDuration("local_timeout"),

		BatchSize:      v.GetInt("batch_size"),
		LocalBatchSize: v.GetInt("local_batch_size"),
		BatchDelay:     v.GetInt("batch_delay"),

		DataDir:  v.GetString("data_dir"),
		Email:    v.GetString("email"),
		Identity: v.GetString("identity"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini_model", constants.DefaultGeminiModel)
	v.SetDefault("gemini_location", "us-central1")
	v.SetDefault("local_url", constants.DefaultLocalURL)
	v.SetDefault("local_model", constants.DefaultLocalModel)
	v.SetDefault("local_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("batch_size", constants.DefaultRemoteBatchSize)
	v.SetDefault("local_batch_size", constants.DefaultLocalBatchSize)
	v.SetDefault("batch_delay", int(constants.DefaultBatchDelay.Milliseconds()))
	v.SetDefault("identity", "basename")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// bindAPIKeys binds the unprefixed provider variables commonly found in .env files.
func bindAPIKeys(v *viper.Viper) error {
	bindings := map[string][]string{
		"gemini_api_key": {"EPUBALT_GEMINI_API_KEY", "GEMINI_API_KEY", "GEMINI_KEY", "GOOGLE_API_KEY"},
		"gemini_project": {"EPUBALT_GEMINI_PROJECT", "GOOGLE_CLOUD_PROJECT"},
		"local_api_key":  {"EPUBALT_LOCAL_API_KEY", "LOCAL_API_KEY"},
		"log_level":      {"EPUBALT_LOG_LEVEL", "LOG_LEVEL"},
		"log_format":     {"EPUBALT_LOG_FORMAT", "LOG_FORMAT"},
		"log_output":     {"EPUBALT_LOG_OUTPUT", "LOG_OUTPUT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags so that
// flag values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
