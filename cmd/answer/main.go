package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zatekoja/facilityinsight/internal/adapters/cache"
	"github.com/zatekoja/facilityinsight/internal/adapters/dataset"
	"github.com/zatekoja/facilityinsight/internal/adapters/providers/geolocation"
	"github.com/zatekoja/facilityinsight/internal/application/services"
	"github.com/zatekoja/facilityinsight/internal/domain/providers"
	redisclient "github.com/zatekoja/facilityinsight/internal/infrastructure/clients/redis"
	"github.com/zatekoja/facilityinsight/internal/infrastructure/observability"
	"github.com/zatekoja/facilityinsight/pkg/config"
)

func main() {
	var showTerms bool
	var checkOnly bool
	flag.BoolVar(&showTerms, "terms", false, "Append dataset terminology to the answer")
	flag.BoolVar(&checkOnly, "check", false, "Only report whether the question is answerable")
	flag.Parse()

	question := strings.Join(flag.Args(), " ")
	if question == "" {
		question = "How many hospitals have cardiology?"
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)
	logger := observability.GetLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var metrics *observability.Metrics
	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("telemetry setup failed, continuing without it")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn().Err(err).Msg("telemetry shutdown failed")
				}
			}()
			if m, err := observability.InitMetrics(); err == nil {
				metrics = m
			} else {
				logger.Warn().Err(err).Msg("metrics init failed")
			}
		}
	}

	svc := buildAnswerService(cfg, metrics)

	if checkOnly {
		if svc.CanAnswer(question) {
			fmt.Println("answerable")
			return
		}
		fmt.Println("not answerable")
		os.Exit(1)
	}

	fmt.Print(svc.Answer(ctx, question))
	if showTerms {
		if terms := svc.ExplainTerms(); terms != "" {
			fmt.Println()
			fmt.Println(terms)
		}
	}
}

func buildAnswerService(cfg *config.Config, metrics *observability.Metrics) *services.AnswerService {
	logger := observability.GetLogger()

	// Redis when reachable, in-process LRU otherwise. The engine itself
	// never needs the cache to answer; it only speeds up geocoding.
	cacheProvider, err := newCacheProvider(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("cache unavailable, geocode lookups will not be cached")
	}

	geocoder := geolocation.NewMapsGeocodingProvider(cfg.Geocoding.BaseURL, cfg.Geocoding.APIKey, cacheProvider)
	store := dataset.NewStore(cfg.Dataset)

	return services.NewAnswerService(
		store,
		services.NewIntentService(),
		services.NewRiskService(),
		services.NewMismatchService(),
		services.NewOutlierService(),
		services.NewSearchService(),
		services.NewGeoService(geocoder, cfg.Dataset.Country),
		services.NewGlossaryService(),
		metrics,
	)
}

func newCacheProvider(cfg *config.Config) (providers.CacheProvider, error) {
	client, err := redisclient.NewClient(&cfg.Redis)
	if err == nil {
		return cache.NewRedisAdapter(client), nil
	}
	memory, memErr := cache.NewMemoryAdapter(0)
	if memErr != nil {
		return nil, memErr
	}
	return memory, nil
}
