package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"hermannm.dev/devlog"
	"hermannm.dev/devlog/log"
	"hermannm.dev/portfolio/api"
	"hermannm.dev/portfolio/config"
	"hermannm.dev/portfolio/contact"
	"hermannm.dev/portfolio/dataset"
	"hermannm.dev/portfolio/export"
	"hermannm.dev/portfolio/export/clickhouse"
	"hermannm.dev/portfolio/export/elasticsearch"
	"hermannm.dev/portfolio/loader"
	"hermannm.dev/portfolio/ocr"
	"hermannm.dev/portfolio/population"
	"hermannm.dev/portfolio/profile"
	"hermannm.dev/portfolio/sales"
	"hermannm.dev/portfolio/session"
)

func main() {
	logLevel := new(slog.LevelVar)
	slog.SetDefault(slog.New(devlog.NewHandler(os.Stdout, &devlog.Options{Level: logLevel})))

	log.Info("Loading environment variables...")
	conf, err := config.ReadFromEnv()
	if err != nil {
		log.ErrorCause(err, "failed to read config from env")
		os.Exit(1)
	}
	logLevel.Set(conf.LogLevel)

	ctx := context.Background()

	services, tables, err := initialize(ctx, conf)
	if err != nil {
		log.ErrorCause(err, "failed to initialize services")
		os.Exit(1)
	}

	exportDatasets(ctx, conf, tables)

	portfolioAPI := api.NewPortfolioAPI(
		services,
		http.NewServeMux(),
		api.Config{Port: conf.API.Port, SecureCookies: conf.IsProduction},
	)

	log.Infof("Listening on port %s...", conf.API.Port)
	if err := portfolioAPI.ListenAndServe(); err != nil {
		log.ErrorCause(err, "server stopped")
		os.Exit(1)
	}
}

// initialize loads the datasets and sets up the services behind the API. Failing to load a
// dataset stops startup, while a missing image-to-text configuration only disables extraction.
func initialize(ctx context.Context, conf config.Config) (api.Services, []dataset.Table, error) {
	var services api.Services

	log.Info("Loading datasets...")
	datasets := loader.NewCache(os.DirFS(conf.Data.Dir))

	populationTable, err := datasets.Load(ctx, population.Source(conf.Data.PopulationCSV))
	if err != nil {
		return api.Services{}, nil, err
	}
	counties, err := datasets.LoadFeatures(ctx, conf.Data.CountiesGeoJSON, population.ColumnCounty)
	if err != nil {
		return api.Services{}, nil, err
	}
	salesTable, err := datasets.Load(ctx, sales.Source(conf.Data.SalesCSV))
	if err != nil {
		return api.Services{}, nil, err
	}

	preparedSales, err := sales.Prepare(salesTable)
	if err != nil {
		return api.Services{}, nil, err
	}

	if services.Population, err = population.New(populationTable, counties); err != nil {
		return api.Services{}, nil, err
	}
	if services.Sales, err = sales.New(preparedSales); err != nil {
		return api.Services{}, nil, err
	}
	if services.Profile, err = profile.Load(); err != nil {
		return api.Services{}, nil, err
	}

	if conf.Contact.WebhookURL == "" {
		log.Warn("WEB_HOOK_URL is not set, contact form submissions will fail")
	}
	services.Contact = contact.NewClient(
		conf.Contact.WebhookURL,
		conf.Contact.RateInterval,
		conf.Contact.RateBurst,
	)

	extractor, err := ocr.NewGeminiExtractor(ctx, conf.ImageToText.GeminiAPIKey, conf.ImageToText.ModelName)
	if err != nil {
		log.Warn("image-to-text is disabled: " + err.Error())
	} else {
		services.Extractor = extractor
	}

	switch conf.Session.Store {
	case config.SessionStoreRedis:
		log.Info("Connecting to Redis...")
		services.Sessions, err = session.NewRedisStore(ctx, &redis.Options{
			Addr:     conf.Redis.Address,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		}, conf.Session.TTL)
		if err != nil {
			return api.Services{}, nil, err
		}
	default:
		services.Sessions = session.NewMemoryStore(conf.Session.TTL)
	}

	tables := []dataset.Table{populationTable, preparedSales}
	return services, tables, nil
}

func exportDatasets(ctx context.Context, conf config.Config, tables []dataset.Table) {
	var exporters []export.Exporter

	if conf.Export.ToClickHouse {
		log.Info("Connecting to ClickHouse...")
		exporter, err := clickhouse.New(clickhouse.Config{
			Address:  conf.ClickHouse.Address,
			Database: conf.ClickHouse.DatabaseName,
			Username: conf.ClickHouse.Username,
			Password: conf.ClickHouse.Password,
			Debug:    conf.ClickHouse.Debug,
		})
		if err != nil {
			log.ErrorCause(err, "skipping ClickHouse export")
		} else {
			defer exporter.Close()
			exporters = append(exporters, exporter)
		}
	}

	if conf.Export.ToElasticsearch {
		log.Info("Connecting to Elasticsearch...")
		exporter, err := elasticsearch.New(elasticsearch.Config{
			Address: conf.Elasticsearch.Address,
			Debug:   conf.Elasticsearch.Debug,
		})
		if err != nil {
			log.ErrorCause(err, "skipping Elasticsearch export")
		} else {
			exporters = append(exporters, exporter)
		}
	}

	if len(exporters) == 0 {
		return
	}

	if failed := export.All(ctx, exporters, tables...); failed > 0 {
		log.Warn(fmt.Sprintf("%d dataset exports failed, continuing without them", failed))
	}
}
