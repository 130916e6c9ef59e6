package main

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration. Environment variables are read
// first, command-line flags override them.
type Config struct {
	Addr         string `env:"CURLING_ADDR" envDefault:":8080"`
	ClientDir    string `env:"CURLING_CLIENT_DIR"`
	DBPath       string `env:"CURLING_DB" envDefault:"curling.db"`
	PublicURL    string `env:"CURLING_PUBLIC_URL"`
	TotalEnds    int    `env:"CURLING_TOTAL_ENDS" envDefault:"4"`
	StonesPerEnd int    `env:"CURLING_STONES_PER_END" envDefault:"8"`
	TUI          bool   `env:"CURLING_TUI"`
	Audio        bool   `env:"CURLING_AUDIO" envDefault:"true"`
}

// LoadConfig parses the environment, then args
func LoadConfig(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("curling-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.ClientDir, "client", cfg.ClientDir, "Path to client directory (empty disables static files)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (empty disables persistence)")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Base URL encoded in join QR codes")
	fs.IntVar(&cfg.TotalEnds, "ends", cfg.TotalEnds, "Ends per match")
	fs.IntVar(&cfg.StonesPerEnd, "stones", cfg.StonesPerEnd, "Stones per end")
	fs.BoolVar(&cfg.TUI, "tui", cfg.TUI, "Run a local hot-seat match in the terminal")
	fs.BoolVar(&cfg.Audio, "audio", cfg.Audio, "Play audio cues on this machine")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.TotalEnds <= 0 {
		return Config{}, fmt.Errorf("ends must be positive, got %d", cfg.TotalEnds)
	}
	if cfg.StonesPerEnd <= 0 || cfg.StonesPerEnd%2 != 0 {
		return Config{}, fmt.Errorf("stones must be a positive even number, got %d", cfg.StonesPerEnd)
	}
	return cfg, nil
}

// Match returns the match settings for this configuration
func (c Config) Match() MatchConfig {
	m := DefaultConfig()
	m.TotalEnds = c.TotalEnds
	m.StonesPerEnd = c.StonesPerEnd
	return m
}
