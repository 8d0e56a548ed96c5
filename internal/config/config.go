package config

import (
	"dario.cat/mergo"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config represents the application configuration shared by the learner client and the progress server
type Config struct {
	Client    ClientConfig    `yaml:"client,omitempty"`
	Player    PlayerConfig    `yaml:"player,omitempty"`
	Reporter  ReporterConfig  `yaml:"reporter,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	CMS       CMSConfig       `yaml:"cms,omitempty"`
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// ClientConfig contains settings the learner client uses to reach the progress server
type ClientConfig struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	Token          string `yaml:"token,omitempty"`
	CohortID       uint   `yaml:"cohort_id,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// PlayerConfig contains media player settings
type PlayerConfig struct {
	Type string `yaml:"type,omitempty"` // "mpv"
	Path string `yaml:"path,omitempty"`
	Args string `yaml:"args,omitempty"`
}

// ReporterConfig controls when progress is sent to the server
type ReporterConfig struct {
	IntervalSeconds     int `yaml:"interval_seconds,omitempty"`
	DebounceSeconds     int `yaml:"debounce_seconds,omitempty"`
	CompletionRetries   int `yaml:"completion_retries,omitempty"`
	RetryDelayMillis    int `yaml:"retry_delay_millis,omitempty"`
	FlushTimeoutSeconds int `yaml:"flush_timeout_seconds,omitempty"`
}

// ServerConfig contains progress server settings
type ServerConfig struct {
	Listen         string `yaml:"listen,omitempty"`
	DatabaseDriver string `yaml:"database_driver,omitempty"` // "postgres", "sqlite"
	DatabaseDSN    string `yaml:"database_dsn,omitempty"`
	JWTSecret      string `yaml:"jwt_secret,omitempty"`
	// SkipEnrollmentCheckOnWrite lets students keep recording progress after their enrollment was cancelled
	SkipEnrollmentCheckOnWrite bool   `yaml:"skip_enrollment_check_on_write,omitempty"`
	CORSOrigins                string `yaml:"cors_origins,omitempty"`
	RateLimitPerMinute         int    `yaml:"rate_limit_per_minute,omitempty"`
}

// CMSConfig points at the headless CMS lessons and cohorts are synchronised from.  Sync is disabled without an endpoint.
type CMSConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Token    string `yaml:"token,omitempty"`
}

// SchedulerConfig contains cron specs for the server's background jobs
type SchedulerConfig struct {
	CohortLifecycle string `yaml:"cohort_lifecycle,omitempty"`
	ContentSync     string `yaml:"content_sync,omitempty"`
	Timezone        string `yaml:"timezone,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
}

// Interval returns the periodic save interval
func (c ReporterConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// RetryDelay returns the pause between completion save attempts
func (c ReporterConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillis) * time.Millisecond
}

// FlushTimeout bounds the final save made when playback is torn down
func (c ReporterConfig) FlushTimeout() time.Duration {
	return time.Duration(c.FlushTimeoutSeconds) * time.Second
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
func Load() (*Config, error) {
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// Startup continues on the defaults even if they cannot be written
		_ = save(cfg, configPath)
	}

	applyDynamicDefaults(cfg)

	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	if err = applyEnvVarOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	updateFn(cfg)

	return save(cfg, configPath)
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv("LECTERN_CONFIG_PATH")
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "lectern", "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 10,
		},
		Player: PlayerConfig{
			Type: "mpv",
			Path: "mpv",
		},
		Reporter: ReporterConfig{
			IntervalSeconds:     10,
			DebounceSeconds:     5,
			CompletionRetries:   1,
			RetryDelayMillis:    2000,
			FlushTimeoutSeconds: 3,
		},
		Server: ServerConfig{
			Listen:             ":8080",
			DatabaseDriver:     "sqlite",
			DatabaseDSN:        "lectern.db",
			CORSOrigins:        "*",
			RateLimitPerMinute: 120,
		},
		Scheduler: SchedulerConfig{
			CohortLifecycle: "@every 1m",
			ContentSync:     "@every 15m",
			Timezone:        "UTC",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "lectern.log")
	}

	switch runtime.GOOS {
	case "windows":
		// %LOCALAPPDATA%\lectern\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "lectern", "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "lectern", "logs")
		}
	case "darwin":
		basePath = filepath.Join(homedir, "Library", "Logs", "lectern")
	default:
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "lectern", "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "lectern", "logs")
		}
	}

	err = os.MkdirAll(basePath, 0700)
	if err != nil {
		return filepath.Join(".", "lectern.log")
	}
	return filepath.Join(basePath, "lectern.log")
}
