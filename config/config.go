package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingEnv = errors.New("missing-env")

type Config struct {
	AllowedOrigins   []string
	Port             string
	Debug            bool
	LogPretty        bool
	HistoryCap       int
	RoomIdleTTL      time.Duration
	OutboxSize       int
	LiveRate         float64
	LiveBurst        int
	BroadcastCommits bool
	PingInterval     time.Duration
}

func Default() Config {
	return Config{
		Port:         "8000",
		HistoryCap:   10000,
		RoomIdleTTL:  30 * time.Minute,
		OutboxSize:   256,
		LiveRate:     120,
		LiveBurst:    240,
		PingInterval: 30 * time.Second,
	}
}

// Load reads the configuration from the environment. ALLOWED_ORIGINS is required; every
// other variable falls back to Default.
func Load() (Config, error) {
	c := Default()

	origins, exists := os.LookupEnv("ALLOWED_ORIGINS")
	if !exists || strings.TrimSpace(origins) == "" {
		return c, fmt.Errorf("%w: ALLOWED_ORIGINS", ErrMissingEnv)
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, o)
		}
	}

	if port, exists := os.LookupEnv("PORT"); exists && port != "" {
		c.Port = port
	}

	var err error
	if c.Debug, err = lookupBool("DEBUG", c.Debug); err != nil {
		return c, err
	}
	if c.LogPretty, err = lookupBool("LOG_PRETTY", c.LogPretty); err != nil {
		return c, err
	}
	if c.BroadcastCommits, err = lookupBool("BROADCAST_COMMITS", c.BroadcastCommits); err != nil {
		return c, err
	}
	if c.HistoryCap, err = lookupInt("HISTORY_CAP", c.HistoryCap, 0); err != nil {
		return c, err
	}
	if c.OutboxSize, err = lookupInt("OUTBOX_SIZE", c.OutboxSize, 2); err != nil {
		return c, err
	}
	if c.LiveBurst, err = lookupInt("LIVE_BURST", c.LiveBurst, 1); err != nil {
		return c, err
	}
	if c.LiveRate, err = lookupFloat("LIVE_RATE", c.LiveRate); err != nil {
		return c, err
	}
	if c.RoomIdleTTL, err = lookupDuration("ROOM_IDLE_TTL", c.RoomIdleTTL, 0); err != nil {
		return c, err
	}
	if c.PingInterval, err = lookupDuration("PING_INTERVAL", c.PingInterval, time.Second); err != nil {
		return c, err
	}
	return c, nil
}

func invalid(name, value string, err error) error {
	return fmt.Errorf("invalid %s=%q: %w", name, value, err)
}

func lookupBool(name string, fallback bool) (bool, error) {
	value, exists := os.LookupEnv(name)
	if !exists || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, invalid(name, value, err)
	}
	return b, nil
}

func lookupInt(name string, fallback, min int) (int, error) {
	value, exists := os.LookupEnv(name)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, invalid(name, value, err)
	}
	if n < min {
		return fallback, invalid(name, value, fmt.Errorf("must be at least %d", min))
	}
	return n, nil
}

func lookupFloat(name string, fallback float64) (float64, error) {
	value, exists := os.LookupEnv(name)
	if !exists || value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback, invalid(name, value, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback, invalid(name, value, errors.New("must be finite"))
	}
	if f <= 0 {
		return fallback, invalid(name, value, errors.New("must be positive"))
	}
	return f, nil
}

func lookupDuration(name string, fallback, min time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(name)
	if !exists || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, invalid(name, value, err)
	}
	if d < min {
		return fallback, invalid(name, value, fmt.Errorf("must be at least %s", min))
	}
	return d, nil
}
