// Package config loads the cache subsystem configuration from the
// environment. Every setting has a default, so an empty environment yields
// a working local configuration.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/quillbill/backend/cachekeys"
)

// Redis holds the remote store connection settings.
type Redis struct {
	Host           string
	Port           int
	Password       string
	KeyPrefix      string
	ConnectTimeout time.Duration
	MaxRetries     int
}

// Options converts the settings into go-redis client options.
func (r Redis) Options() *redis.Options {
	return &redis.Options{
		Addr:        fmt.Sprintf("%s:%d", r.Host, r.Port),
		Password:    r.Password,
		DialTimeout: r.ConnectTimeout,
		MaxRetries:  r.MaxRetries,
	}
}

// TTL holds the per-class durations. Zero values are filled with the
// cachekeys defaults.
type TTL struct {
	Short    time.Duration
	Medium   time.Duration
	Long     time.Duration
	VeryLong time.Duration
	Session  time.Duration
}

// Config is the full cache subsystem configuration.
type Config struct {
	Redis Redis
	TTL   TTL

	// Enabled gates the Redis backend. When false the service runs on the
	// in-process store only.
	Enabled bool
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_KEY_PREFIX", "inv")
	v.SetDefault("REDIS_CONNECTION_TIMEOUT", "10s")
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("CACHE_ENABLED", true)

	connectTimeout, err := parseDuration(v.GetString("REDIS_CONNECTION_TIMEOUT"), 10*time.Second)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: REDIS_CONNECTION_TIMEOUT")
	}

	cfg := Config{
		Redis: Redis{
			Host:           v.GetString("REDIS_HOST"),
			Port:           v.GetInt("REDIS_PORT"),
			Password:       v.GetString("REDIS_PASSWORD"),
			KeyPrefix:      v.GetString("REDIS_KEY_PREFIX"),
			ConnectTimeout: connectTimeout,
			MaxRetries:     v.GetInt("REDIS_MAX_RETRIES"),
		},
		Enabled: v.GetBool("CACHE_ENABLED"),
	}

	ttls := []struct {
		env string
		def time.Duration
		dst *time.Duration
	}{
		{"CACHE_TTL_SHORT", cachekeys.TTLShort, &cfg.TTL.Short},
		{"CACHE_TTL_MEDIUM", cachekeys.TTLMedium, &cfg.TTL.Medium},
		{"CACHE_TTL_LONG", cachekeys.TTLLong, &cfg.TTL.Long},
		{"CACHE_TTL_VERY_LONG", cachekeys.TTLVeryLong, &cfg.TTL.VeryLong},
		{"CACHE_TTL_SESSION", cachekeys.TTLSession, &cfg.TTL.Session},
	}
	for _, t := range ttls {
		d, err := parseDuration(v.GetString(t.env), t.def)
		if err != nil {
			return Config{}, errors.Wrapf(err, "config: %s", t.env)
		}
		*t.dst = d
	}

	return cfg, nil
}

// parseDuration accepts either a bare integer number of seconds (the
// original deployments configured TTLs as seconds) or any duration string
// str2duration understands ("90s", "5m", "1h30m").
func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			return 0, errors.Newf("negative duration %q", s)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	return d, nil
}
