package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/genudine/ps2-discord-room-bot/internal/core"
)

const DefaultWatchPrefix = "WATCH_CHANNEL"

// watchChannelsEnv is the env binding of watch_channels. Viper already
// reads it, so the prefix scan leaves it alone.
const watchChannelsEnv = "WATCH_CHANNELS"

var ErrMissingToken = errors.New("discord_token is required")

type Config struct {
	Mode             string        `mapstructure:"mode"`
	LogLevel         string        `mapstructure:"log_level"`
	DiscordToken     string        `mapstructure:"discord_token"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	PruneDelay       time.Duration `mapstructure:"prune_delay"`
	SweepParallelism int           `mapstructure:"sweep_parallelism"`
	EventBuffer      int           `mapstructure:"event_buffer"`
	HTTPPort         int           `mapstructure:"http_port"`
	WatchPrefix      string        `mapstructure:"watch_prefix"`
	WatchChannels    []string      `mapstructure:"watch_channels"`
}

// Load reads .env, the optional config/config.<CONFIG_ENV>.yaml file and
// the environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("could not read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Debug().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("discord_token", "")
	v.SetDefault("sweep_interval", "150s")
	v.SetDefault("prune_delay", "5s")
	v.SetDefault("sweep_parallelism", 1)
	v.SetDefault("event_buffer", 64)
	v.SetDefault("http_port", 0)
	v.SetDefault("watch_prefix", DefaultWatchPrefix)
	v.SetDefault("watch_channels", []string{})
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DiscordToken == "" {
		return nil, &core.ConfigError{Key: "discord_token", Err: ErrMissingToken}
	}
	if cfg.SweepInterval <= 0 {
		return nil, &core.ConfigError{Key: "sweep_interval", Value: cfg.SweepInterval.String(), Err: errors.New("must be positive")}
	}
	if cfg.SweepParallelism < 1 {
		cfg.SweepParallelism = 1
	}
	if cfg.WatchPrefix == "" {
		cfg.WatchPrefix = DefaultWatchPrefix
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Dur("sweep_interval", cfg.SweepInterval).
		Dur("prune_delay", cfg.PruneDelay).
		Int("http_port", cfg.HTTPPort).
		Msg("config ready")
	return &cfg, nil
}

// WatchEntries returns the raw "<guild>:<channel>" values of every
// environment variable whose key starts with prefix, followed by the
// entries from the config file (or WATCH_CHANNELS). Keys are visited in
// sorted order so that duplicate guilds resolve the same way on every
// start.
func (c *Config) WatchEntries(environ []string) []string {
	var keys []string
	byKey := make(map[string]string)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == watchChannelsEnv || !strings.HasPrefix(k, c.WatchPrefix) {
			continue
		}
		keys = append(keys, k)
		byKey[k] = v
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys)+len(c.WatchChannels))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return append(out, c.WatchChannels...)
}
