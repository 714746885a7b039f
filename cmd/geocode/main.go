package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/facilityinsight/internal/adapters/cache"
	"github.com/zatekoja/facilityinsight/internal/adapters/dataset"
	"github.com/zatekoja/facilityinsight/internal/adapters/providers/geolocation"
	"github.com/zatekoja/facilityinsight/internal/application/services"
	"github.com/zatekoja/facilityinsight/internal/infrastructure/observability"
	"github.com/zatekoja/facilityinsight/pkg/config"
)

func main() {
	var dryRun bool
	var limit int
	var delay time.Duration

	flag.BoolVar(&dryRun, "dry-run", false, "Only count rows to geocode, do not call the API")
	flag.IntVar(&limit, "limit", 0, "Max number of rows to geocode (0 = all)")
	flag.DurationVar(&delay, "delay", 0, "Delay between API calls (default from config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if delay <= 0 {
		delay = cfg.Geocoding.RequestDelay
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)
	logger := observability.GetLogger()

	store := dataset.NewStore(cfg.Dataset)

	// A local cache is enough here: the point is only to avoid re-querying
	// duplicate addresses within one run.
	memCache, err := cache.NewMemoryAdapter(0)
	if err != nil {
		logger.Warn().Err(err).Msg("cache init failed, continuing without cache")
	}
	geocoder := geolocation.NewMapsGeocodingProvider(cfg.Geocoding.BaseURL, cfg.Geocoding.APIKey, memCache)

	svc := services.NewGeocodeBackfillService(store, geocoder, cfg.Dataset.Country, delay, cfg.Dataset.GeocodedSuffix, nil)

	if dryRun {
		missing, total, outputPath, err := svc.CountMissing(limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Rows missing lat/lon: %d (of %d total). Would write to %s\n", missing, total, outputPath)
		return
	}

	if cfg.Geocoding.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Set GEOCODE_API_KEY (get a free key at https://geocode.maps.co/).")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	summary, err := svc.Run(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("backfill failed")
		if summary == nil {
			os.Exit(1)
		}
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("total_rows", summary.TotalRows).
		Int("attempted", summary.Attempted).
		Int("success", summary.SuccessCount).
		Int("failed", summary.FailureCount).
		Str("output", summary.OutputPath).
		Msg("backfill complete")
	fmt.Printf("Wrote %s\n", summary.OutputPath)
}
