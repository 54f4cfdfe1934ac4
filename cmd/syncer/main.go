// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Job application sync — one-shot command.
//
// Standalone CLI tool that runs a single sync pass over every active
// mail account and prints a summary. Intended for cron and for manual
// runs during development.
//
// Usage:
//
//	go run ./cmd/syncer/ [--max-results 50] [--account 7]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jessemorales01/job-application-process/internal/classifier"
	"github.com/jessemorales01/job-application-process/internal/config"
	"github.com/jessemorales01/job-application-process/internal/genai"
	"github.com/jessemorales01/job-application-process/internal/mailbox"
	"github.com/jessemorales01/job-application-process/internal/oauth"
	"github.com/jessemorales01/job-application-process/internal/processor"
	"github.com/jessemorales01/job-application-process/internal/store"
	"github.com/jessemorales01/job-application-process/internal/syncer"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	maxResultsFlag := flag.Int("max-results", 0, "Max messages to fetch per account (0 = configured default)")
	accountFlag := flag.Int64("account", 0, "Sync only this account id (0 = all active accounts)")
	flag.Parse()

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	maxResults := *maxResultsFlag
	if maxResults <= 0 {
		maxResults = cfg.FetchBatchSize
	}

	slog.Info("starting sync pass", "max_results", maxResults)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	// --- Stores ---
	stores, err := store.New(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise stores", "error", err)
		os.Exit(1)
	}

	// --- Pipeline ---
	fetcher := mailbox.NewFetcher(
		&http.Client{Timeout: cfg.FetchTimeout},
		mailbox.DefaultBaseURL,
	)
	pattern := classifier.New(cfg.Classify)
	analyzer := genai.New(genai.AnalyzerConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
		Cache:  genai.NewRedisCache(rdb),
	})
	proc := processor.New(pattern, analyzer)
	refresher := oauth.NewRefresher(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleTokenURL,
	)

	svc := syncer.New(syncer.Config{
		Source:          fetcher,
		Processor:       proc,
		Refresher:       refresher,
		Accounts:        stores.Accounts,
		Detected:        stores.Detected,
		Applications:    stores.Applications,
		CompanyDenylist: cfg.Classify.CompanyDenylist,
	})

	// --- Run ---
	if *accountFlag != 0 {
		runSingle(ctx, svc, stores, *accountFlag, maxResults)
		return
	}

	summary, err := svc.SyncAll(ctx, maxResults)
	if err != nil {
		slog.Error("sync pass failed", "error", err)
		os.Exit(1)
	}

	// --- Summary ---
	fmt.Printf("Sync complete: %d/%d accounts succeeded\n",
		summary.AccountsSucceeded, summary.AccountsProcessed)
	fmt.Printf("  emails processed:  %d\n", summary.TotalEmailsProcessed)
	fmt.Printf("  detected created:  %d\n", summary.TotalDetectedCreated)
	for _, e := range summary.Errors {
		fmt.Printf("  failed: %s (account %d): %s\n", e.Email, e.AccountID, e.Error)
	}

	if summary.AccountsFailed > 0 {
		os.Exit(1)
	}
}

// runSingle syncs one account by id.
func runSingle(ctx context.Context, svc *syncer.Service, stores *store.Stores, id int64, maxResults int) {
	account, err := stores.Accounts.Get(ctx, id)
	if err != nil {
		slog.Error("failed to load account", "account_id", id, "error", err)
		os.Exit(1)
	}
	if account == nil {
		slog.Error("account not found", "account_id", id)
		os.Exit(1)
	}

	stats, err := svc.SyncAccount(ctx, account, maxResults)
	if err != nil {
		slog.Error("account sync failed", "account_id", id, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Sync complete for %s\n", account.Email)
	fmt.Printf("  processed: %d\n", stats.Processed)
	fmt.Printf("  created:   %d\n", stats.Created)
	fmt.Printf("  skipped:   %d\n", stats.Skipped)
	fmt.Printf("  errors:    %d\n", stats.Errors)
}
