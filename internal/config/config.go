package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ModeWeb     = "web"
	ModeConsole = "console"

	OpponentComputer = "computer"
	OpponentHuman    = "human"
)

var (
	ErrUnknownMode     = errors.New("unknown mode")
	ErrUnknownOpponent = errors.New("unknown opponent")
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Mode      string    `yaml:"mode" env:"MODE" env-default:"web"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Opponent  string    `yaml:"opponent" env:"OPPONENT" env-default:"computer"`
	Session   Session   `yaml:"session"`
	WebSocket WebSocket `yaml:"websocket"`
}

type Session struct {
	IdleTimeout     time.Duration `yaml:"idle-timeout" env:"SESSION_IDLE_TIMEOUT" env-default:"30m"`
	CleanupInterval time.Duration `yaml:"cleanup-interval" env:"SESSION_CLEANUP_INTERVAL" env-default:"1m"`
	CookieTTL       time.Duration `yaml:"cookie-ttl" env:"SESSION_COOKIE_TTL" env-default:"24h"`
}

type WebSocket struct {
	WriteTimeout time.Duration `yaml:"write-timeout" env:"WS_WRITE_TIMEOUT" env-default:"10s"`
}

// MustLoad - load all configurations in config.yml file, or only the environment when the file is missing.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	} else if err = cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.Mode {
	case ModeWeb, ModeConsole:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, that.Mode)
	}

	switch that.Opponent {
	case OpponentComputer, OpponentHuman:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOpponent, that.Opponent)
	}

	return nil
}

func (that *Config) VersusComputer() bool {
	return that.Opponent == OpponentComputer
}
