package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"hermannm.dev/wrap"
)

type Config struct {
	BaseConfig
	Redis         Redis
	ClickHouse    ClickHouse
	Elasticsearch Elasticsearch
}

type BaseConfig struct {
	IsProduction bool       `env:"PRODUCTION" envDefault:"false"`
	LogLevel     slog.Level `env:"LOG_LEVEL"  envDefault:"INFO"`
	API          API
	Data         Data
	Contact      Contact
	ImageToText  ImageToText
	Session      Session
	Export       Export
}

type API struct {
	Port string `env:"API_PORT" envDefault:"8000"`
}

// Data holds the dataset file paths, relative to Dir.
type Data struct {
	Dir             string `env:"DATA_DIR"         envDefault:"data"`
	PopulationCSV   string `env:"POPULATION_CSV"   envDefault:"kenya_population.csv"`
	CountiesGeoJSON string `env:"COUNTIES_GEOJSON" envDefault:"kenya_counties.geojson"`
	SalesCSV        string `env:"SALES_CSV"        envDefault:"retail_sales.csv"`
}

type Contact struct {
	// Left blank, contact submissions fail with an upstream error instead of stopping startup.
	WebhookURL   string        `env:"WEB_HOOK_URL"          envDefault:""`
	RateInterval time.Duration `env:"CONTACT_RATE_INTERVAL" envDefault:"10s"`
	RateBurst    int           `env:"CONTACT_RATE_BURST"    envDefault:"3"`
}

type ImageToText struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY" envDefault:""`
	ModelName    string `env:"MODEL_NAME"     envDefault:""`
}

type Session struct {
	Store SessionStore  `env:"SESSION_STORE" envDefault:"memory"`
	TTL   time.Duration `env:"SESSION_TTL"   envDefault:"1h"`
}

type Export struct {
	ToClickHouse    bool `env:"EXPORT_CLICKHOUSE"    envDefault:"false"`
	ToElasticsearch bool `env:"EXPORT_ELASTICSEARCH" envDefault:"false"`
}

type Redis struct {
	Address  string `env:"REDIS_ADDRESS"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

type ClickHouse struct {
	Address      string `env:"CLICKHOUSE_ADDRESS"`
	DatabaseName string `env:"CLICKHOUSE_DB_NAME"`
	Username     string `env:"CLICKHOUSE_USERNAME"`
	Password     string `env:"CLICKHOUSE_PASSWORD"`
	Debug        bool   `env:"CLICKHOUSE_DEBUG_ENABLED" envDefault:"false"`
}

type Elasticsearch struct {
	Address string `env:"ELASTICSEARCH_ADDRESS"`
	Debug   bool   `env:"ELASTICSEARCH_DEBUG" envDefault:"false"`
}

type SessionStore string

const (
	SessionStoreMemory SessionStore = "memory"
	SessionStoreRedis  SessionStore = "redis"
)

// ReadFromEnv loads variables from a .env file in the working directory, if one exists, then
// parses the environment. Variables for Redis and the export targets are only required when the
// features using them are enabled.
func ReadFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, wrap.Error(err, "failed to load .env file")
	}

	return parse(env.Options{RequiredIfNoDef: true})
}

func parse(parseOptions env.Options) (Config, error) {
	var config Config

	if err := env.ParseWithOptions(&config.BaseConfig, parseOptions); err != nil {
		return Config{}, err
	}

	switch config.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if err := env.ParseWithOptions(&config.Redis, parseOptions); err != nil {
			return Config{}, err
		}
	default:
		err := fmt.Errorf("must be one of: '%s', '%s'", SessionStoreMemory, SessionStoreRedis)
		return Config{}, wrap.Errorf(
			err,
			"unsupported value '%s' for SESSION_STORE in env",
			config.Session.Store,
		)
	}

	if config.Export.ToClickHouse {
		if err := env.ParseWithOptions(&config.ClickHouse, parseOptions); err != nil {
			return Config{}, err
		}
	}

	if config.Export.ToElasticsearch {
		if err := env.ParseWithOptions(&config.Elasticsearch, parseOptions); err != nil {
			return Config{}, err
		}
	}

	return config, nil
}
