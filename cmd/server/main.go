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

// Job application sync service.
//
// Entry point for the long-running sync service. It:
//  1. Loads configuration from config.yaml and the environment
//  2. Connects to PostgreSQL and Redis
//  3. Wires the mailbox fetcher, classifiers and sync orchestrator
//  4. Serves /sync, /classify and /health
//  5. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jessemorales01/job-application-process/internal/classifier"
	"github.com/jessemorales01/job-application-process/internal/config"
	"github.com/jessemorales01/job-application-process/internal/genai"
	"github.com/jessemorales01/job-application-process/internal/httpapi"
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

	slog.Info("starting job application sync service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"fetch_batch_size", cfg.FetchBatchSize,
		"fetch_timeout", cfg.FetchTimeout,
	)

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
	slog.Info("connected to PostgreSQL")

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Stores (Postgres) ---
	stores, err := store.New(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise stores", "error", err)
		os.Exit(1)
	}

	// --- Mailbox Fetcher ---
	fetcher := mailbox.NewFetcher(
		&http.Client{Timeout: cfg.FetchTimeout},
		mailbox.DefaultBaseURL,
	)

	// --- Classifiers ---
	pattern := classifier.New(cfg.Classify)
	analyzer := genai.New(genai.AnalyzerConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
		Cache:  genai.NewRedisCache(rdb),
	})
	proc := processor.New(pattern, analyzer)

	// --- Token Refresher ---
	refresher := oauth.NewRefresher(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleTokenURL,
	)

	// --- Sync Orchestrator ---
	svc := syncer.New(syncer.Config{
		Source:          fetcher,
		Processor:       proc,
		Refresher:       refresher,
		Accounts:        stores.Accounts,
		Detected:        stores.Detected,
		Applications:    stores.Applications,
		CompanyDenylist: cfg.Classify.CompanyDenylist,
	})

	// --- HTTP API ---
	handler := httpapi.NewHandler(httpapi.HandlerConfig{
		Sync:       svc,
		Classifier: proc,
		Detected:   stores.Detected,
		MaxResults: cfg.FetchBatchSize,
		PGPing:     pgPool.Ping,
		RedisPing: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // sync runs are synchronous
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		rdb.Close()
		pgPool.Close()
	}()

	slog.Info("sync service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("sync service stopped")
}
