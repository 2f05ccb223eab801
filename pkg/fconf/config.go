// Package fconf loads farmctl configuration from YAML files, environment
// variables and bound CLI flags.
package fconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Region       string        `mapstructure:"region"`
	Project      string        `mapstructure:"project"`
	DevicePool   string        `mapstructure:"device-pool"`
	NamePrefix   string        `mapstructure:"name-prefix"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
	PollAttempts int           `mapstructure:"poll-attempts"`
	SettleDelay  time.Duration `mapstructure:"settle-delay"`

	v *viper.Viper // instance-specific viper
}

const (
	EnvPrefix  = "FARMCTL"
	ConfigName = "farmctl"
	ConfigRoot = ".farmctl"

	RegionKey       = "region"
	ProjectKey      = "project"
	DevicePoolKey   = "device-pool"
	NamePrefixKey   = "name-prefix"
	PollIntervalKey = "poll-interval"
	PollAttemptsKey = "poll-attempts"
	SettleDelayKey  = "settle-delay"
)

// Upload processing is polled at PollInterval up to PollAttempts times, and
// the run is submitted SettleDelay after the last upload finishes. Device
// Farm is only offered in us-west-2.
const (
	DefaultRegion       = "us-west-2"
	DefaultPollInterval = 100 * time.Millisecond
	DefaultPollAttempts = 100
	DefaultSettleDelay  = 5 * time.Second
)

// LoadConfig creates a new Config instance with its own viper.
// This is the only way to load config (no global state).
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		// Project config (TRACKED) - farmctl.yaml in current directory
		for _, name := range []string{"farmctl.yaml", "farmctl.yml", ".farmctl.yaml"} {
			if _, err := os.Stat(name); err == nil {
				v.SetConfigFile(name)
				if err := v.ReadInConfig(); err == nil {
					break
				}
			}
		}

		// Merge local overrides (UNTRACKED) - .farmctl/config.yaml
		localConfigPath := filepath.Join(ConfigRoot, "config.yaml")
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("merging local config: %w", err)
			}
		}
	}

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.v = v
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(RegionKey, DefaultRegion)
	v.SetDefault(PollIntervalKey, DefaultPollInterval)
	v.SetDefault(PollAttemptsKey, DefaultPollAttempts)
	v.SetDefault(SettleDelayKey, DefaultSettleDelay)
}

// GetString returns a string value from the underlying viper instance.
// Useful after CLI flag binding, where flags override file values.
func (c *Config) GetString(key string) string {
	if c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// GetInt returns an int value from the underlying viper instance.
func (c *Config) GetInt(key string) int {
	if c.v == nil {
		return 0
	}
	return c.v.GetInt(key)
}

// GetDuration returns a duration value from the underlying viper instance.
func (c *Config) GetDuration(key string) time.Duration {
	if c.v == nil {
		return 0
	}
	return c.v.GetDuration(key)
}

// Viper returns the underlying viper instance for flag binding.
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// ConfigFileUsed returns the config file that was used (if any).
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}
