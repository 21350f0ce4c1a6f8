package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when AUCTION_CONFIG is unset. It may be absent.
const DefaultPath = "config.yaml"

type Config struct {
	Server       ServerConfig  `yaml:"server"`
	Auction      AuctionConfig `yaml:"auction"`
	Catalog      CatalogConfig `yaml:"catalog"`
	Affiliations []string      `yaml:"affiliations"`
	NATS         NATSConfig    `yaml:"nats"`
	Log          LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuctionConfig struct {
	StartingBudget         float64       `yaml:"starting_budget"`
	SquadCap               int           `yaml:"squad_cap"`
	MaxParticipants        int           `yaml:"max_participants"`
	Countdown              time.Duration `yaml:"countdown"`
	TierAnnounceDelay      time.Duration `yaml:"tier_announce_delay"`
	PostFinalizeDelay      time.Duration `yaml:"post_finalize_delay"`
	ReconnectGrace         time.Duration `yaml:"reconnect_grace"`
	PremiumRatingThreshold float64       `yaml:"premium_rating_threshold"`
}

type CatalogConfig struct {
	// Path to an .xlsx, .csv or .yaml source. Empty uses the built-in catalog.
	Path            string  `yaml:"path"`
	CurrencyDivisor float64 `yaml:"currency_divisor"`
}

type NATSConfig struct {
	// URL enables mirroring room events to JetStream when set.
	URL           string `yaml:"url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// IPLFranchises is the default affiliation list.
var IPLFranchises = []string{
	"Chennai Super Kings",
	"Delhi Capitals",
	"Gujarat Titans",
	"Kolkata Knight Riders",
	"Lucknow Super Giants",
	"Mumbai Indians",
	"Punjab Kings",
	"Rajasthan Royals",
	"Royal Challengers Bengaluru",
	"Sunrisers Hyderabad",
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Auction: AuctionConfig{
			StartingBudget:         100,
			SquadCap:               15,
			MaxParticipants:        10,
			Countdown:              30 * time.Second,
			TierAnnounceDelay:      3 * time.Second,
			PostFinalizeDelay:      2 * time.Second,
			ReconnectGrace:         20 * time.Second,
			PremiumRatingThreshold: 9.0,
		},
		Catalog: CatalogConfig{
			CurrencyDivisor: 100,
		},
		Affiliations: append([]string(nil), IPLFranchises...),
		NATS: NATSConfig{
			Stream:        "AUCTION_EVENTS",
			SubjectPrefix: "auction.events",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads the YAML file named by AUCTION_CONFIG (or DefaultPath) over the
// defaults, then applies environment overrides. A missing DefaultPath is not
// an error; a missing explicitly named file is.
func Load() (*Config, error) {
	path, explicit := os.LookupEnv("AUCTION_CONFIG")
	if !explicit || path == "" {
		path = DefaultPath
		explicit = false
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Catalog.Path = getEnv("CATALOG_PATH", c.Catalog.Path)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.Auction.MaxParticipants = getEnvAsInt("MAX_PARTICIPANTS", c.Auction.MaxParticipants)
	if secs := getEnvAsInt("AUCTION_COUNTDOWN_SECONDS", 0); secs > 0 {
		c.Auction.Countdown = time.Duration(secs) * time.Second
	}
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
}

// Validate rejects settings the auction cannot run with.
func (c *Config) Validate() error {
	var errs []error
	a := c.Auction
	if a.StartingBudget <= 0 {
		errs = append(errs, errors.New("auction.starting_budget must be positive"))
	}
	if a.SquadCap <= 0 {
		errs = append(errs, errors.New("auction.squad_cap must be positive"))
	}
	if a.MaxParticipants <= 0 {
		errs = append(errs, errors.New("auction.max_participants must be positive"))
	}
	if a.Countdown <= 0 || a.TierAnnounceDelay < 0 || a.PostFinalizeDelay < 0 || a.ReconnectGrace < 0 {
		errs = append(errs, errors.New("auction timings must not be negative and countdown must be positive"))
	}
	if c.Catalog.CurrencyDivisor <= 0 {
		errs = append(errs, errors.New("catalog.currency_divisor must be positive"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
