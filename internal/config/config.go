package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                string
	AllowedOrigins      []string
	MatchmakingInterval time.Duration
	ReapInterval        time.Duration
	GameIdleTimeout     time.Duration
	MatchPickupTimeout  time.Duration
	Dev                 bool
}

func Default() Config {
	return Config{
		Addr:                ":3000",
		AllowedOrigins:      []string{"http://localhost:5173"},
		MatchmakingInterval: time.Second,
		ReapInterval:        30 * time.Second,
		GameIdleTimeout:     30 * time.Minute,
		MatchPickupTimeout:  30 * time.Second,
		Dev:                 false,
	}
}

// Load reads flags from args. Environment variables (TAPCHESS_*) override the built-in
// defaults; explicit flags override both.
func Load(args []string) (Config, error) {
	cfg := Default()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("tapchess", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	origins := strings.Join(cfg.AllowedOrigins, ",")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&origins, "origins", origins, "comma separated CORS and websocket origins")
	fs.DurationVar(&cfg.MatchmakingInterval, "matchmaking-interval", cfg.MatchmakingInterval, "how often the matchmaking queue is polled")
	fs.DurationVar(&cfg.ReapInterval, "reap-interval", cfg.ReapInterval, "how often expired games are dropped")
	fs.DurationVar(&cfg.GameIdleTimeout, "game-idle-timeout", cfg.GameIdleTimeout, "how long a game with no connections is kept")
	fs.DurationVar(&cfg.MatchPickupTimeout, "match-pickup-timeout", cfg.MatchPickupTimeout, "how long a match waits for a player who is not listening")
	fs.BoolVar(&cfg.Dev, "dev", cfg.Dev, "development logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.AllowedOrigins = splitOrigins(origins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("TAPCHESS_ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := os.LookupEnv("TAPCHESS_ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitOrigins(v)
	}
	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"TAPCHESS_MATCHMAKING_INTERVAL", &cfg.MatchmakingInterval},
		{"TAPCHESS_REAP_INTERVAL", &cfg.ReapInterval},
		{"TAPCHESS_GAME_IDLE_TIMEOUT", &cfg.GameIdleTimeout},
		{"TAPCHESS_MATCH_PICKUP_TIMEOUT", &cfg.MatchPickupTimeout},
	}
	for _, d := range durations {
		v, ok := os.LookupEnv(d.env)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.env, err)
		}
		*d.dst = parsed
	}
	if v, ok := os.LookupEnv("TAPCHESS_DEV"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TAPCHESS_DEV: %w", err)
		}
		cfg.Dev = b
	}
	return nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr is required")
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("config: at least one allowed origin is required")
	}
	if c.MatchmakingInterval <= 0 {
		return fmt.Errorf("config: matchmaking interval must be positive, got %s", c.MatchmakingInterval)
	}
	if c.ReapInterval <= 0 {
		return fmt.Errorf("config: reap interval must be positive, got %s", c.ReapInterval)
	}
	if c.GameIdleTimeout <= 0 || c.MatchPickupTimeout <= 0 {
		return fmt.Errorf("config: game idle and match pickup timeouts must be positive, got %s and %s", c.GameIdleTimeout, c.MatchPickupTimeout)
	}
	return nil
}
