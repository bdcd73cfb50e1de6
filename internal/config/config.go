// Package config loads server configuration from command-line flags, environment
// variables, and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App            AppConfig
	Logger         LoggerConfig
	Storage        StorageConfig
	Server         ServerConfig
	Completion     CompletionConfig
	Recommendation RecommendationConfig
	BookSearch     BookSearchConfig
	Import         ImportConfig
	Credential     CredentialConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects and locates the key-value repository.
type StorageConfig struct {
	DataPath string // Root directory for the database, secret key, and index
	Driver   string // badger (default) or sqlite
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	CORSOrigins       []string
	GenerateRateLimit int // Generation requests per minute per client IP
}

// CompletionConfig describes the language-model completion endpoint.
type CompletionConfig struct {
	URL          string
	Model        string
	Temperature  float64
	Timeout      time.Duration
	SystemPrompt bool // Send the librarian system message ahead of the user prompt
}

// RecommendationConfig controls the recommendation workflow.
type RecommendationConfig struct {
	Count   int
	Dedupe  string // off or title
	Exclude string // accepted or all
}

// BookSearchConfig configures the Google Books proxy.
type BookSearchConfig struct {
	APIKey  string
	BaseURL string
}

// CredentialConfig controls how the stored completion credential is sealed.
type CredentialConfig struct {
	// Passphrase derives the sealing key with argon2id. Empty uses a random
	// key file in the data path.
	Passphrase string
}

// ImportConfig configures the CSV import inbox.
type ImportConfig struct {
	WatchDir string // Empty disables the watcher
}

// Load parses args with a dedicated flag set and resolves configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file.
// 4. Defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("marlow", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for persistent data")
	driver := fs.String("store-driver", "", "Storage driver (badger, sqlite)")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 90s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	completionURL := fs.String("completion-url", "", "Chat completions endpoint")
	completionModel := fs.String("completion-model", "", "Completion model name")
	recCount := fs.String("recommendation-count", "", "Recommendations requested per generation (default: 5)")
	dedupe := fs.String("recommendation-dedupe", "", "Duplicate title policy (off, title)")
	watchDir := fs.String("import-watch-dir", "", "Directory watched for Goodreads CSV exports")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Missing .env is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Driver:   getConfigValue(*driver, "STORE_DRIVER", "badger"),
		},
		Server: ServerConfig{
			Port:              getConfigValue(*port, "SERVER_PORT", "8080"),
			CORSOrigins:       splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "")),
			GenerateRateLimit: getIntConfigValue("", "GENERATE_RATE_LIMIT", 10),
		},
		Completion: CompletionConfig{
			URL:          getConfigValue(*completionURL, "COMPLETION_URL", "https://api.openai.com/v1/chat/completions"),
			Model:        getConfigValue(*completionModel, "COMPLETION_MODEL", "gpt-3.5-turbo"),
			Temperature:  getFloatConfigValue("", "COMPLETION_TEMPERATURE", 0.75),
			SystemPrompt: getBoolConfigValue("", "COMPLETION_SYSTEM_PROMPT", true),
		},
		Recommendation: RecommendationConfig{
			Count:   getIntConfigValue(*recCount, "RECOMMENDATION_COUNT", 5),
			Dedupe:  getConfigValue(*dedupe, "RECOMMENDATION_DEDUPE", "off"),
			Exclude: getConfigValue("", "RECOMMENDATION_EXCLUDE", "accepted"),
		},
		BookSearch: BookSearchConfig{
			APIKey:  getConfigValue("", "GOOGLE_BOOKS_API_KEY", ""),
			BaseURL: getConfigValue("", "GOOGLE_BOOKS_URL", "https://www.googleapis.com/books/v1/volumes"),
		},
		Import: ImportConfig{
			WatchDir: getConfigValue(*watchDir, "IMPORT_WATCH_DIR", ""),
		},
		Credential: CredentialConfig{
			Passphrase: getConfigValue("", "CREDENTIAL_PASSPHRASE", ""),
		},
	}

	durations := []struct {
		flag, env, def string
		dst            *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		// Generous default: a synchronous generation waits on the model.
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "90s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"", "COMPLETION_TIMEOUT", "60s", &cfg.Completion.Timeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.env, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.env, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Storage.Driver {
	case "badger", "sqlite":
	default:
		return fmt.Errorf("invalid store driver: %s (must be badger or sqlite)", c.Storage.Driver)
	}

	if c.Recommendation.Count < 1 || c.Recommendation.Count > 20 {
		return fmt.Errorf("recommendation count must be between 1 and 20, got %d", c.Recommendation.Count)
	}

	switch c.Recommendation.Dedupe {
	case "off", "title":
	default:
		return fmt.Errorf("invalid recommendation dedupe policy: %s (must be off or title)", c.Recommendation.Dedupe)
	}

	switch c.Recommendation.Exclude {
	case "accepted", "all":
	default:
		return fmt.Errorf("invalid recommendation exclude scope: %s (must be accepted or all)", c.Recommendation.Exclude)
	}

	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		return fmt.Errorf("completion temperature must be between 0 and 2, got %v", c.Completion.Temperature)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// An empty path resolves to defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data path to ~/.marlow.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, ".marlow"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded

	if c.Import.WatchDir != "" {
		watch, err := expandPath(c.Import.WatchDir, "")
		if err != nil {
			return err
		}
		c.Import.WatchDir = watch
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
