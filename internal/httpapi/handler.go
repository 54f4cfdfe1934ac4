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

// Package httpapi exposes the sync service over HTTP: trigger a sync
// run, classify a single message, and report health.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jessemorales01/job-application-process/internal/models"
	"github.com/jessemorales01/job-application-process/internal/syncer"
)

// SyncRunner triggers a full multi-account sync run.
type SyncRunner interface {
	SyncAll(ctx context.Context, maxPerAccount int) (syncer.Summary, error)
}

// Classifier classifies one raw message.
type Classifier interface {
	Process(ctx context.Context, msg models.RawMessage) models.ClassificationResult
}

// DetectedLister reads detected applications for the review workflow.
type DetectedLister interface {
	ListByStatus(ctx context.Context, status string) ([]models.DetectedApplication, error)
}

// Pinger checks a backing service's liveness.
type Pinger func(ctx context.Context) error

// Handler serves the sync API.
type Handler struct {
	sync       SyncRunner
	classifier Classifier
	detected   DetectedLister
	maxResults int
	pgPing     Pinger
	redisPing  Pinger
}

// HandlerConfig holds the handler's dependencies.
type HandlerConfig struct {
	Sync       SyncRunner
	Classifier Classifier
	Detected   DetectedLister
	MaxResults int
	PGPing     Pinger
	RedisPing  Pinger
}

// NewHandler creates the API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		sync:       cfg.Sync,
		classifier: cfg.Classifier,
		detected:   cfg.Detected,
		maxResults: cfg.MaxResults,
		pgPing:     cfg.PGPing,
		redisPing:  cfg.RedisPing,
	}
}

// Routes returns the service mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", h.serveSync)
	mux.HandleFunc("/classify", h.serveClassify)
	mux.HandleFunc("/detected", h.serveDetected)
	mux.HandleFunc("/health", h.serveHealth)
	return mux
}

// serveSync runs a full sync pass and returns the summary. The run is
// synchronous — callers are internal tooling and cron, not browsers.
func (h *Handler) serveSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.sync.SyncAll(r.Context(), h.maxResults)
	if err != nil {
		slog.Error("sync run failed", "error", err)
		http.Error(w, "sync failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// serveClassify classifies a single message without persisting anything.
func (h *Handler) serveClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg models.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result := h.classifier.Process(r.Context(), msg)
	writeJSON(w, http.StatusOK, result)
}

// serveDetected lists detected applications in a review state,
// defaulting to the pending queue.
func (h *Handler) serveDetected(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.ReviewPending
	}
	switch status {
	case models.ReviewPending, models.ReviewAccepted, models.ReviewRejected, models.ReviewMerged:
	default:
		http.Error(w, "unknown review status", http.StatusBadRequest)
		return
	}

	records, err := h.detected.ListByStatus(r.Context(), status)
	if err != nil {
		slog.Error("detected listing failed", "status", status, "error", err)
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.DetectedApplication{}
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	if h.redisPing != nil {
		if err := h.redisPing(r.Context()); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	if h.pgPing != nil {
		if err := h.pgPing(r.Context()); err != nil {
			http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
