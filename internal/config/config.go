package config

import (
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/samber/lo"
	"time"
)

var (
	ErrConfigNotLoaded = errors.New("config not loaded")
)

type Environment string

const (
	Production  Environment = "prod"
	Development Environment = "dev"
)

func (e *Environment) SetValue(s string) error {
	*e = Environment(s)
	return e.validate()
}

func (e *Environment) validate() error {
	if *e != Production && *e != Development {
		return configNotLoadedErr(`only "prod" and "dev" environments are allowed`)
	}
	return nil
}

var drivers = []string{storage.DriverPostgres, storage.DriverSQLite}

type Config struct {
	App struct {
		Env Environment `yaml:"env" env:"ENV" env-required:""`
	} `yaml:"app" env-prefix:"APP_" env-required:""`

	Server struct {
		Host string `yaml:"host" env:"HOST" env-default:"localhost"`
		Port int    `yaml:"port" env:"PORT" env-default:"8080"`
	} `yaml:"server" env-prefix:"SERVER_"`

	DB struct {
		Driver string `yaml:"driver" env:"DRIVER" env-default:"pgx"`
		DSN    string `yaml:"dsn" env:"DSN" env-required:""`
	} `yaml:"db" env-prefix:"DB_" env-required:""`

	// Broker is optional, events are only logged when URL is empty.
	Broker struct {
		URL   string `yaml:"url" env:"URL"`
		Queue string `yaml:"queue" env:"QUEUE" env-default:"bmi_records"`
	} `yaml:"broker" env-prefix:"BROKER_"`
}

func Load(filePath string) (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadConfig(filePath, cfg); err != nil {
		return nil, configNotLoadedErr("config not loaded: %w", err)
	}

	if err := cfg.App.Env.validate(); err != nil {
		return nil, err
	}

	if !lo.Contains(drivers, cfg.DB.Driver) {
		return nil, configNotLoadedErr("unsupported db driver %q", cfg.DB.Driver)
	}

	return cfg, nil
}

func MustLoad(filePath string) *Config {
	cfg, err := Load(filePath)
	if err != nil {
		panic(err)
	}
	return cfg
}

// ClientConfig configures the command line client. It is read from the
// environment only.
type ClientConfig struct {
	API struct {
		URL     string        `env:"URL" env-default:"http://localhost:8080"`
		Timeout time.Duration `env:"TIMEOUT" env-default:"10s"`
	} `env-prefix:"BMI_API_"`

	Verbose bool `env:"BMI_VERBOSE" env-default:"false"`
}

func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, configNotLoadedErr("client config not loaded: %w", err)
	}
	if cfg.API.Timeout <= 0 {
		return nil, configNotLoadedErr("api timeout must be positive, got %s", cfg.API.Timeout)
	}
	return cfg, nil
}

func configNotLoadedErr(format string, args ...any) error {
	return errors.Join(fmt.Errorf(format, args...), ErrConfigNotLoaded)
}
