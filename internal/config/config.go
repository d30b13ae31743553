// Package config loads settings from an optional latihan.yaml, a .env file
// and LATIHAN_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/latihan/internal/llm"
	"github.com/abhisek/latihan/internal/logger"
	"github.com/abhisek/latihan/internal/sheet"
)

// EnvPrefix prefixes every environment variable, e.g. LATIHAN_LOG_LEVEL.
const EnvPrefix = "LATIHAN"

// Config is the resolved application configuration.
type Config struct {
	LLM         llm.Config
	Log         logger.Config
	DB          string // empty means store.DefaultDBPath
	MetricsFile string
	Exercise    sheet.Settings

	// File is the config file that was read, if any.
	File string
}

// LoadOptions points Load at explicit files.
type LoadOptions struct {
	ConfigFile string // explicit config file; must exist when set
	EnvFile    string // default ".env"; a missing file is ignored
}

// Load resolves the configuration.
func Load(opts LoadOptions) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("latihan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		LLM: llmConfig(v),
		Log: logger.Config{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		DB:          v.GetString("db"),
		MetricsFile: v.GetString("metrics.file"),
		Exercise: sheet.Settings{
			Duration:         v.GetInt("exercise.duration"),
			ShuffleQuestions: v.GetBool("exercise.shuffle_questions"),
			ShuffleOptions:   v.GetBool("exercise.shuffle_options"),
		},
		File: v.ConfigFileUsed(),
	}

	// Without an explicit provider, fall back to the standard key variables.
	if v.GetString("llm.provider") == "" && cfg.LLM.Validate() != nil {
		if found, ok := llm.DiscoverConfig(); ok {
			cfg.LLM.Provider = found.Provider
			mergeKeys(&cfg.LLM, found)
		}
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := llm.DefaultConfig()
	s := sheet.DefaultSettings()

	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", d.Gemini.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", d.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", d.Anthropic.Model)
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", d.OpenRouter.Model)
	v.SetDefault("llm.openrouter.app_name", d.OpenRouter.AppName)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.openrouter.site_url", "")
	v.SetDefault("llm.fallback_models", strings.Join(d.Fallback.Models, ","))
	v.SetDefault("llm.attempts_per_model", d.Fallback.AttemptsPerModel)
	v.SetDefault("llm.attempt_delay", d.Fallback.Delay)
	v.SetDefault("llm.timeout", d.Timeout)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("db", "")
	v.SetDefault("metrics.file", "")

	v.SetDefault("exercise.duration", s.Duration)
	v.SetDefault("exercise.shuffle_questions", s.ShuffleQuestions)
	v.SetDefault("exercise.shuffle_options", s.ShuffleOptions)
}

func llmConfig(v *viper.Viper) llm.Config {
	cfg := llm.DefaultConfig()
	if p := v.GetString("llm.provider"); p != "" {
		cfg.Provider = p
	}
	cfg.Gemini = llm.GeminiConfig{
		APIKey: v.GetString("llm.gemini.api_key"),
		Model:  v.GetString("llm.gemini.model"),
	}
	cfg.OpenAI = llm.OpenAIConfig{
		APIKey:  v.GetString("llm.openai.api_key"),
		Model:   v.GetString("llm.openai.model"),
		BaseURL: v.GetString("llm.openai.base_url"),
	}
	cfg.Anthropic = llm.AnthropicConfig{
		APIKey:  v.GetString("llm.anthropic.api_key"),
		Model:   v.GetString("llm.anthropic.model"),
		BaseURL: v.GetString("llm.anthropic.base_url"),
	}
	cfg.OpenRouter = llm.OpenRouterConfig{
		APIKey:  v.GetString("llm.openrouter.api_key"),
		Model:   v.GetString("llm.openrouter.model"),
		BaseURL: v.GetString("llm.openrouter.base_url"),
		AppName: v.GetString("llm.openrouter.app_name"),
		SiteURL: v.GetString("llm.openrouter.site_url"),
	}
	cfg.Fallback = llm.FallbackConfig{
		Models:           splitList(v.GetStringSlice("llm.fallback_models")),
		AttemptsPerModel: v.GetInt("llm.attempts_per_model"),
		Delay:            v.GetDuration("llm.attempt_delay"),
	}
	cfg.Timeout = v.GetDuration("llm.timeout")
	return cfg
}

// splitList accepts both a YAML list and a comma-separated string.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func mergeKeys(dst *llm.Config, src llm.Config) {
	if src.Gemini.APIKey != "" {
		dst.Gemini.APIKey = src.Gemini.APIKey
	}
	if src.OpenAI.APIKey != "" {
		dst.OpenAI.APIKey = src.OpenAI.APIKey
	}
	if src.Anthropic.APIKey != "" {
		dst.Anthropic.APIKey = src.Anthropic.APIKey
	}
	if src.OpenRouter.APIKey != "" {
		dst.OpenRouter.APIKey = src.OpenRouter.APIKey
	}
}

func configDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "latihan"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "latihan"), nil
}
