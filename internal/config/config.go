package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel     string        `mapstructure:"log_level"`
	OutputFormat string        `mapstructure:"output_format"`
	MinRisk      string        `mapstructure:"min_risk"`
	Regions      []string      `mapstructure:"regions"`
	Exclude      ExcludeConfig `mapstructure:"exclude"`
	Advisor      AdvisorConfig `mapstructure:"advisor"`
	Server       ServerConfig  `mapstructure:"server"`
	Slack        SlackConfig   `mapstructure:"slack"`
}

// ExcludeConfig lists EC2 instances the scan command never visits.
type ExcludeConfig struct {
	Instances []string          `mapstructure:"instances"`
	Tags      map[string]string `mapstructure:"tags"`
}

type AdvisorConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "table")
	v.SetDefault("min_risk", "")
	v.SetDefault("regions", []string{"us-east-1"})
	v.SetDefault("advisor.enabled", false)
	v.SetDefault("advisor.api_key", "")
	v.SetDefault("advisor.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("advisor.model", "anthropic/claude-3-haiku")
	v.SetDefault("advisor.timeout", 30*time.Second)
	v.SetDefault("advisor.cache_ttl", 5*time.Minute)
	v.SetDefault("advisor.cache_size", 1000)
	v.SetDefault("server.addr", ":8888")
	v.SetDefault("slack.webhook_url", "")
	v.SetDefault("slack.channel", "")
}

// LoadConfig reads netwatch.yaml (or the file at path when non-empty) and
// overlays NETWATCH_* environment variables. A missing default file is not
// an error; a missing explicit file is.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("netwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "netwatch"))
		}
	}

	v.SetEnvPrefix("NETWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("advisor.api_key", "NETWATCH_ADVISOR_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("advisor.model", "NETWATCH_ADVISOR_MODEL", "AI_MODEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	cfg.MinRisk = strings.ToUpper(cfg.MinRisk)

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.OutputFormat != "" && c.OutputFormat != "table" && c.OutputFormat != "json" && c.OutputFormat != "yaml" {
		return errors.Errorf("invalid output_format: %s", c.OutputFormat)
	}

	validRisks := map[string]bool{"LOW": true, "MEDIUM": true, "HIGH": true, "CRITICAL": true}
	if c.MinRisk != "" && !validRisks[c.MinRisk] {
		return errors.Errorf("invalid min_risk: %s", c.MinRisk)
	}

	if c.Advisor.CacheSize <= 0 {
		return errors.Errorf("invalid advisor.cache_size: %d", c.Advisor.CacheSize)
	}
	if c.Advisor.Timeout <= 0 {
		return errors.Errorf("invalid advisor.timeout: %s", c.Advisor.Timeout)
	}
	if c.Advisor.CacheTTL <= 0 {
		return errors.Errorf("invalid advisor.cache_ttl: %s", c.Advisor.CacheTTL)
	}

	return nil
}

// Excluded reports whether an instance id or any of its tags is excluded.
func (e ExcludeConfig) Excluded(instanceID string, tags map[string]string) bool {
	for _, id := range e.Instances {
		if id == instanceID {
			return true
		}
	}
	for k, v := range e.Tags {
		if tags[k] == v {
			return true
		}
	}
	return false
}
