package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"listing-extractor/config"
	"listing-extractor/extractor"
	"listing-extractor/models"
	"listing-extractor/storage"
	"listing-extractor/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	urls := os.Args[1:]
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: listing-extractor <listing-url> [listing-url ...]")
		os.Exit(1)
	}

	logger.Info("=== Listing Extraction Engine starting ===")
	logger.Info("Config — urls: %d | concurrency: %d | rate: %dms | browser fetch: %v",
		len(urls), cfg.MaxConcurrency, cfg.RateLimitMs, !cfg.DisableBrowser)

	engine := extractor.New(cfg, logger)
	defer engine.Shutdown()

	ctx := context.Background()

	// Retry/backoff lives here at the caller boundary: the engine itself
	// never retries beyond its single heavy-to-light fetch fallback.
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
		Logger:      logger,
	}

	pool := utils.NewWorkerPool(cfg.MaxConcurrency, time.Duration(cfg.RateLimitMs)*time.Millisecond)
	seen := utils.NewURLSet()

	var mu sync.Mutex
	var results []*models.ExtractionResult

	for _, url := range urls {
		if !seen.Add(url) {
			logger.Debug("[main] Skipping duplicate URL: %s", url)
			continue
		}

		u := url
		pool.Submit(func() {
			var result *models.ExtractionResult
			err := retry.Do(ctx, "extract "+u, func() error {
				result = engine.Extract(ctx, u)
				if !result.Success {
					return errors.New(result.Error)
				}
				return nil
			})
			if err != nil {
				logger.Error("[main] Extraction failed: %v", err)
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	pool.Wait()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	var accepted []*models.ExtractedListing
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			logger.Error("[main] Encoding result: %v", err)
		}
		if r.Success {
			accepted = append(accepted, r.Data)
		}
	}

	logger.Info("Extracted %d of %d listing(s)", len(accepted), len(results))
	if len(accepted) == 0 {
		os.Exit(1)
	}

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	if err := csvWriter.Write(accepted); err != nil {
		logger.Error("CSV write failed: %v", err)
	} else {
		logger.Info("Accepted listings saved to %s", cfg.CSVOutputPath)
	}

	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Warn("PostgreSQL unavailable, skipping database write: %v", err)
		return
	}
	defer pgWriter.Close()

	if err := pgWriter.Write(accepted); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
	} else {
		logger.Info("Accepted listings stored in PostgreSQL (table: extracted_listings)")
	}
}
