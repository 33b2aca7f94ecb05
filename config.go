/* config.go
 * Contains the configuration of the bot, read from the environment after the optional .env file is loaded
 * Authors: Zachary Bower
 */

package main

import (
	"errors"
	"time"

	"github.com/thboss/g5-discord-bot-sub000/api/api"

	"github.com/JeremyLoy/config"
	"go.uber.org/multierr"
)

type Config struct {
	DiscordToken  string  `config:"DISCORD_TOKEN"`
	MongoURI      string  `config:"MONGO_URI"`
	MongoDatabase string  `config:"MONGO_DATABASE"`
	G5APIURL      string  `config:"G5_API_URL"`
	G5APIKey      string  `config:"G5_API_KEY"`
	G5APIRate     float64 `config:"G5_API_RATE"`
	HTTPAddr      string  `config:"HTTP_ADDR"`
	Debug         string  `config:"DEBUG"`

	// Phase windows in seconds
	ReadyTimeout int `config:"READY_TIMEOUT"`
	DraftTimeout int `config:"DRAFT_TIMEOUT"`
	VetoTimeout  int `config:"VETO_TIMEOUT"`
	PollInterval int `config:"POLL_INTERVAL"`
}

func defaultConfig() Config {
	return Config{
		MongoDatabase: "g5",
		G5APIRate:     5,
		HTTPAddr:      ":8080",
		Debug:         "false",
		ReadyTimeout:  60,
		DraftTimeout:  180,
		VetoTimeout:   180,
		PollInterval:  20,
	}
}

// LoadConfig reads the configuration from the environment on top of the defaults
// Preconditions: The .env file, if any, has already been loaded into the environment
// Postconditions: Returns the configuration, or an error naming every missing or invalid value
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if err := config.FromEnv().To(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks that the required values are present
func (c Config) Validate() error {
	var errs error
	if c.DiscordToken == "" {
		errs = multierr.Append(errs, errors.New("DISCORD_TOKEN is required"))
	}
	if c.MongoURI == "" {
		errs = multierr.Append(errs, errors.New("MONGO_URI is required"))
	}
	if c.G5APIURL == "" {
		errs = multierr.Append(errs, errors.New("G5_API_URL is required"))
	}
	if c.G5APIKey == "" {
		errs = multierr.Append(errs, errors.New("G5_API_KEY is required"))
	}
	if c.G5APIRate <= 0 {
		errs = multierr.Append(errs, errors.New("G5_API_RATE must be positive"))
	}
	if _, err := convertStrToBool(c.Debug); err != nil {
		errs = multierr.Append(errs, errors.New("DEBUG must be true or false"))
	}
	return errs
}

// Timeouts converts the configured windows to engine timeouts. Unset windows keep the engine defaults
func (c Config) Timeouts() api.Timeouts {
	t := api.DefaultTimeouts()
	if c.ReadyTimeout > 0 {
		t.ReadyCheck = time.Duration(c.ReadyTimeout) * time.Second
	}
	if c.DraftTimeout > 0 {
		t.Draft = time.Duration(c.DraftTimeout) * time.Second
	}
	if c.VetoTimeout > 0 {
		t.Veto = time.Duration(c.VetoTimeout) * time.Second
	}
	if c.PollInterval > 0 {
		t.Poll = time.Duration(c.PollInterval) * time.Second
	}
	return t
}
