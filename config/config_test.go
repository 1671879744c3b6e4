package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v9"
)

func parseEnvironment(environment map[string]string) (Config, error) {
	return parse(env.Options{RequiredIfNoDef: true, Environment: environment})
}

func TestDefaults(t *testing.T) {
	config, err := parseEnvironment(map[string]string{})
	if err != nil {
		t.Fatal(err)
	}

	if config.API.Port != "8000" {
		t.Errorf("unexpected default port %q", config.API.Port)
	}
	if config.LogLevel != slog.LevelInfo {
		t.Errorf("unexpected default log level %v", config.LogLevel)
	}
	if config.Session.Store != SessionStoreMemory || config.Session.TTL != time.Hour {
		t.Errorf("unexpected default session config %+v", config.Session)
	}
	if config.Export.ToClickHouse || config.Export.ToElasticsearch {
		t.Error("expected exports to be disabled by default")
	}
}

func TestOverrides(t *testing.T) {
	config, err := parseEnvironment(map[string]string{
		"LOG_LEVEL":             "DEBUG",
		"CONTACT_RATE_INTERVAL": "1m",
		"CONTACT_RATE_BURST":    "5",
		"SESSION_STORE":         "redis",
		"REDIS_ADDRESS":         "localhost:6379",
		"REDIS_DB":              "2",
	})
	if err != nil {
		t.Fatal(err)
	}

	if config.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug log level, got %v", config.LogLevel)
	}
	if config.Contact.RateInterval != time.Minute || config.Contact.RateBurst != 5 {
		t.Errorf("unexpected contact config %+v", config.Contact)
	}
	if config.Redis.Address != "localhost:6379" || config.Redis.DB != 2 {
		t.Errorf("unexpected redis config %+v", config.Redis)
	}
}

func TestRequiredWhenEnabled(t *testing.T) {
	testCases := []struct {
		name        string
		environment map[string]string
		missing     string
	}{
		{
			name:        "redis session store",
			environment: map[string]string{"SESSION_STORE": "redis"},
			missing:     "REDIS_ADDRESS",
		},
		{
			name:        "ClickHouse export",
			environment: map[string]string{"EXPORT_CLICKHOUSE": "true"},
			missing:     "CLICKHOUSE_ADDRESS",
		},
		{
			name:        "Elasticsearch export",
			environment: map[string]string{"EXPORT_ELASTICSEARCH": "true"},
			missing:     "ELASTICSEARCH_ADDRESS",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := parseEnvironment(testCase.environment)
			if err == nil || !strings.Contains(err.Error(), testCase.missing) {
				t.Errorf("expected error mentioning %s, got %v", testCase.missing, err)
			}
		})
	}
}

func TestUnsupportedSessionStore(t *testing.T) {
	_, err := parseEnvironment(map[string]string{"SESSION_STORE": "memcached"})
	if err == nil || !strings.Contains(err.Error(), "SESSION_STORE") {
		t.Errorf("expected SESSION_STORE error, got %v", err)
	}
}
