// Package config loads podnest settings from a config file, the environment
// and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"podnest/internal/assemble"
	"podnest/internal/cache"
	"podnest/internal/llm"
	"podnest/internal/pipeline"
	"podnest/internal/speech/tts"
	"podnest/internal/textgen"
)

// Config is the complete application configuration.
type Config struct {
	Text     llm.Config      `mapstructure:"text"`
	Speech   tts.Config      `mapstructure:"speech"`
	Pipeline pipeline.Config `mapstructure:"pipeline"`
	Cache    cache.Config    `mapstructure:"cache"`
	Assemble assemble.Config `mapstructure:"assemble"`
	Remote   RemoteConfig    `mapstructure:"remote"`
	Output   OutputConfig    `mapstructure:"output"`
	Log      LogConfig       `mapstructure:"log"`
}

type RemoteConfig struct {
	// RequestsPerMinute limits all remote calls together; 0 disables the limit.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Init points v at the config file locations and the environment.
func Init(v *viper.Viper) {
	v.SetConfigName("podnest")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.podnest")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PODNEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("text.api_key", "PODNEST_TEXT_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("speech.api_key", "PODNEST_SPEECH_API_KEY", "OPENAI_API_KEY")

	SetDefaults(v)
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("text.backend", llm.BackendOpenAI.String())
	v.SetDefault("text.model", "gpt-4o")
	v.SetDefault("text.api_key", "")
	v.SetDefault("text.base_url", "")
	v.SetDefault("text.timeout", 2*time.Minute)

	v.SetDefault("speech.backend", tts.EngineTypeOpenAI.String())
	v.SetDefault("speech.model", "tts-1")
	v.SetDefault("speech.api_key", "")
	v.SetDefault("speech.base_url", "")
	v.SetDefault("speech.speed", 1.0)
	v.SetDefault("speech.timeout", 5*time.Minute)

	v.SetDefault("pipeline.workers", pipeline.DefaultWorkers)
	v.SetDefault("pipeline.run_timeout", pipeline.DefaultRunTimeout)
	v.SetDefault("pipeline.max_subtopics", 0)

	v.SetDefault("cache.backend", cache.BackendFile)
	v.SetDefault("cache.dir", DefaultCacheDir())
	v.SetDefault("cache.text_ttl", textgen.DefaultTextTTL)

	v.SetDefault("assemble.ffmpeg_path", "ffmpeg")
	v.SetDefault("assemble.markers", true)
	v.SetDefault("assemble.intro_file", "")
	v.SetDefault("assemble.outro_file", "")

	v.SetDefault("remote.requests_per_minute", 0)
	v.SetDefault("output.dir", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the config file, if any, and returns the validated configuration.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Pipeline.Workers < 1:
		return fmt.Errorf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers)
	case c.Pipeline.RunTimeout < 0:
		return errors.New("pipeline.run_timeout must not be negative")
	case c.Cache.TextTTL <= 0:
		return errors.New("cache.text_ttl must be positive")
	case c.Cache.Dir == "":
		return errors.New("cache.dir must be set")
	case c.Speech.Speed < 0.25 || c.Speech.Speed > 4.0:
		return fmt.Errorf("speech.speed must be between 0.25 and 4.0, got %.2f", c.Speech.Speed)
	case c.Remote.RequestsPerMinute < 0:
		return errors.New("remote.requests_per_minute must not be negative")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// SetupLogging configures the standard logrus logger.
func SetupLogging(c LogConfig) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	if c.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// DefaultCacheDir returns the appropriate cache directory
func DefaultCacheDir() string {
	// Try to use user's cache directory
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "podnest")
	}

	// Try user's home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".podnest", "cache")
	}

	// Get current working directory as fallback
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, "cache")
	}

	return "cache"
}
