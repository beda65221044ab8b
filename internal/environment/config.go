// Package environment loads the competition-day configuration: a TOML
// file for everything the organizers decide up front, plus environment
// variables for broker endpoints that differ per deployment.
package environment

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/takamgr/resultreader/internal/resolver"
	"github.com/takamgr/resultreader/internal/scorecard"
	"github.com/takamgr/resultreader/internal/trigger"
)

type Config struct {
	Competition CompetitionConfig `toml:"competition"`
	Trigger     TriggerConfig     `toml:"trigger"`
	Resolver    ResolverConfig    `toml:"resolver"`
	Store       StoreConfig       `toml:"store"`
}

type CompetitionConfig struct {
	// Format is the section layout code, e.g. "4x2".
	Format string `toml:"format"`

	// Type selects the class ordering, "championship" or "beginner".
	Type string `toml:"type"`

	// DataDir is where the roster lives and the result table is written.
	DataDir string `toml:"data_dir"`

	// RosterFile is the roster CSV name inside DataDir.
	RosterFile string `toml:"roster_file"`
}

type TriggerConfig struct {
	PresentWhiteRatio   float64 `toml:"present_white_ratio"`
	PresentBrightness   float64 `toml:"present_brightness"`
	StableBrightnessTol float64 `toml:"stable_brightness_tol"`
	StableWhiteRatioTol float64 `toml:"stable_white_ratio_tol"`
	StableFramesToFire  int     `toml:"stable_frames_to_fire"`
}

type ResolverConfig struct {
	RoiHalfSize     int     `toml:"roi_half_size"`
	DarkSumThr      int     `toml:"dark_sum_thr"`
	PunchedDarkRate float64 `toml:"punched_dark_rate"`
}

type StoreConfig struct {
	KeepSectionsOnVoid *bool `toml:"keep_sections_on_void"`
}

// ReadConfig parses the TOML config file and validates the competition
// table. Trigger, resolver and store knobs left unset keep their
// defaults.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.Format(); err != nil {
		return nil, err
	}
	if _, err := cfg.Tournament(); err != nil {
		return nil, err
	}
	if cfg.Competition.DataDir == "" {
		return nil, fmt.Errorf("competition.data_dir must be set")
	}
	if cfg.Competition.RosterFile == "" {
		cfg.Competition.RosterFile = "roster.csv"
	}
	return cfg, nil
}

func (c *Config) Format() (scorecard.Format, error) {
	return scorecard.ParseFormat(c.Competition.Format)
}

func (c *Config) Tournament() (scorecard.TournamentType, error) {
	return scorecard.ParseTournamentType(c.Competition.Type)
}

// TriggerParams maps the [trigger] table onto the trigger defaults;
// zero-valued fields are left at their defaults.
func (c *Config) TriggerParams() trigger.Params {
	p := trigger.DefaultParams()
	if c.Trigger.PresentWhiteRatio > 0 {
		p.PresentWhiteRatio = c.Trigger.PresentWhiteRatio
	}
	if c.Trigger.PresentBrightness > 0 {
		p.PresentBrightness = c.Trigger.PresentBrightness
	}
	if c.Trigger.StableBrightnessTol > 0 {
		p.StableBrightnessTol = c.Trigger.StableBrightnessTol
	}
	if c.Trigger.StableWhiteRatioTol > 0 {
		p.StableWhiteRatioTol = c.Trigger.StableWhiteRatioTol
	}
	if c.Trigger.StableFramesToFire > 0 {
		p.StableFramesToFire = c.Trigger.StableFramesToFire
	}
	return p
}

// ResolverParams maps the [resolver] table onto the resolver defaults.
func (c *Config) ResolverParams() resolver.Params {
	p := resolver.DefaultParams()
	if c.Resolver.RoiHalfSize > 0 {
		p.ROIHalfSize = c.Resolver.RoiHalfSize
	}
	if c.Resolver.DarkSumThr > 0 {
		p.DarkSumThr = c.Resolver.DarkSumThr
	}
	if c.Resolver.PunchedDarkRate > 0 {
		p.PunchedDarkRate = c.Resolver.PunchedDarkRate
	}
	return p
}

// KeepSectionsOnVoid defaults to true: voided sessions keep their raw
// section values as an audit trail.
func (c *Config) KeepSectionsOnVoid() bool {
	if c.Store.KeepSectionsOnVoid == nil {
		return true
	}
	return *c.Store.KeepSectionsOnVoid
}

// EnvConfig carries the broker endpoints that vary per deployment and
// never belong in the committed config file.
type EnvConfig struct {
	NatsUrl     string
	NatsSubject string
	SqsQueueUrl string
	AwsRegion   string
}

// ReadEnvConfig loads .env if present and reads the broker variables.
// All of them are optional; absent brokers simply stay unwired.
func ReadEnvConfig() *EnvConfig {
	_ = godotenv.Load()
	return &EnvConfig{
		NatsUrl:     os.Getenv("NATS_URL"),
		NatsSubject: os.Getenv("NATS_SUBJECT"),
		SqsQueueUrl: os.Getenv("SQS_QUEUE_URL"),
		AwsRegion:   os.Getenv("AWS_REGION"),
	}
}
