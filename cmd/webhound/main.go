package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/webpuppy/webhound-go/internal/models"
	"github.com/webpuppy/webhound-go/internal/poller"
	"github.com/webpuppy/webhound-go/internal/setup"
	"github.com/webpuppy/webhound-go/internal/setup/logger"
)

func main() {
	query := flag.String("q", "", "Query to submit for dataset generation")
	rateJob := flag.String("rate", "", "Job ID to rate")
	rating := flag.String("value", string(models.RatingGoodDog), "Rating value: good_dog or bad_dog")
	raw := flag.String("raw", "", "Job ID to fetch the unprocessed record for")
	download := flag.String("download", "", "Job ID to download as CSV")
	out := flag.String("o", "", "CSV output path (defaults to stdout)")
	recent := flag.Int("recent", 0, "Show the N most recent queries")
	stats := flag.Bool("stats", false, "Show rating stats")
	flag.Parse()

	if *query == "" && *rateJob == "" && *raw == "" && *download == "" && *recent == 0 && !*stats {
		fmt.Fprintln(os.Stderr, "Usage: webhound -q '<query>' | -rate <job-id> [-value good_dog|bad_dog] | -raw <job-id> | -download <job-id> [-o file.csv] | -recent <n> | -stats")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	cfg := setup.LoadConfig()
	appLogger := logger.NewConsole(cfg.LogLevel)
	log.Logger = appLogger

	deps, err := setup.Wire(cfg, &appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	ctx := context.Background()

	switch {
	case *query != "":
		err = submitAndWait(ctx, deps, *query)
	case *rateJob != "":
		err = rate(ctx, deps, *rateJob, *rating)
	case *raw != "":
		err = showRaw(ctx, deps, *raw)
	case *download != "":
		err = downloadCSV(ctx, deps, *download, *out)
	case *recent > 0:
		err = showRecent(ctx, deps, *recent)
	case *stats:
		err = showStats(ctx, deps)
	}
	if err != nil {
		log.Error().Err(err).Msg("webhound failed")
		os.Exit(1)
	}
}

func submitAndWait(ctx context.Context, deps *setup.Dependencies, query string) error {
	result := deps.Validator.Validate(query)
	for _, warning := range result.Warnings {
		log.Warn().Msg(warning)
	}
	if !result.IsValid {
		for _, suggestion := range result.Suggestions {
			log.Info().Msg(suggestion)
		}
		if result.IsBlocked {
			return fmt.Errorf("query blocked: %v", result.BlockedReasons)
		}
		return fmt.Errorf("query rejected: %v", result.Warnings)
	}

	// Watch backend liveness for the duration of the session.
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go deps.Monitor.Start(monitorCtx)

	deps.Poller.Submit(ctx, query)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snapshot := <-deps.Poller.Updates():
			switch snapshot.State {
			case poller.StateSubmitting:
				log.Info().Str("query", snapshot.Query).Msg("Submitting query")
			case poller.StatePolling:
				log.Info().Str("job_id", snapshot.JobID).Int("attempt", snapshot.Attempt).Msg("Waiting for results")
			case poller.StateCompleted:
				return printResult(snapshot.Result)
			default:
				if snapshot.State.Terminal() {
					log.Warn().Str("backend", string(deps.Monitor.Status())).Msg("Session ended without a dataset")
					return fmt.Errorf("%s: %s", snapshot.State, snapshot.Message)
				}
			}
		case <-time.After(30 * time.Second):
			// Updates can drop under burst; fall back to the snapshot.
			if snapshot := deps.Poller.Snapshot(); snapshot.State.Terminal() {
				if snapshot.State == poller.StateCompleted {
					return printResult(snapshot.Result)
				}
				return fmt.Errorf("%s: %s", snapshot.State, snapshot.Message)
			}
		}
	}
}

func printResult(result *models.DatasetResult) error {
	log.Info().
		Str("job_id", result.JobID).
		Int("total_records", result.TotalRecords).
		Str("quality_score", result.QualityScore).
		Msg("Dataset ready")

	for _, source := range result.Sources {
		log.Info().Str("source", source).Msg("Source")
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result.Dataset)
}

func rate(ctx context.Context, deps *setup.Dependencies, jobID, value string) error {
	rating := models.Rating(value)
	if rating != models.RatingGoodDog && rating != models.RatingBadDog {
		return fmt.Errorf("invalid rating %q: use good_dog or bad_dog", value)
	}

	response, err := deps.Client.RateJob(ctx, jobID, rating)
	if err != nil {
		return err
	}
	log.Info().Str("job_id", response.JobID).Str("rating", response.Rating).Msg(response.Message)
	return nil
}

func showRaw(ctx context.Context, deps *setup.Dependencies, jobID string) error {
	raw, err := deps.Client.GetRawData(ctx, jobID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(raw)
}

func downloadCSV(ctx context.Context, deps *setup.Dependencies, jobID, path string) error {
	var w *os.File = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	n, err := deps.Client.DownloadCSV(ctx, jobID, w)
	if err != nil {
		return err
	}
	log.Info().Str("job_id", jobID).Int64("bytes", n).Msg("CSV downloaded")
	return nil
}

func showRecent(ctx context.Context, deps *setup.Dependencies, limit int) error {
	response, err := deps.Client.GetRecentQueries(ctx, limit)
	if err != nil {
		return err
	}
	for _, recent := range response.RecentQueries {
		fmt.Printf("%s  %-10s  %s\n", recent.CreatedAt, recent.Status, recent.Query)
	}
	return nil
}

func showStats(ctx context.Context, deps *setup.Dependencies) error {
	stats, err := deps.Client.GetRatingStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("rated: %d  good: %d (%.1f%%)  bad: %d (%.1f%%)\n",
		stats.TotalRated, stats.GoodDogs, stats.GoodPercentage, stats.BadDogs, stats.BadPercentage)
	return nil
}
