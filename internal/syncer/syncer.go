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

// Package syncer orchestrates a sync run: refresh credentials, fetch a
// bounded batch of messages, classify each one, and persist the
// detected applications that pass the business-rule gates. A run never
// aborts because of one bad message; it aborts per account on
// authentication failures, which the multi-account driver isolates.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jessemorales01/job-application-process/internal/classifier"
	"github.com/jessemorales01/job-application-process/internal/models"
)

// MinConfidence is the persistence gate: classifications below it are
// skipped, never stored.
const MinConfidence = 0.6

// MessageSource fetches a bounded batch of recent messages.
type MessageSource interface {
	FetchRecent(ctx context.Context, accessToken string, maxResults int) ([]models.RawMessage, error)
}

// Processor classifies one message (hybrid pattern + generative).
type Processor interface {
	Process(ctx context.Context, msg models.RawMessage) models.ClassificationResult
}

// TokenRefresher exchanges a refresh token for a new access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, account *models.MailAccount) (string, time.Time, error)
}

// AccountStore is the mail-account persistence the orchestrator needs.
type AccountStore interface {
	ListActive(ctx context.Context) ([]models.MailAccount, error)
	SaveTokens(ctx context.Context, id int64, accessToken string, expiry time.Time) error
	TouchLastSync(ctx context.Context, id int64) error
}

// DetectedStore persists detected applications and answers the dedup
// lookup.
type DetectedStore interface {
	Exists(ctx context.Context, accountID int64, externalMessageID string) (bool, error)
	Create(ctx context.Context, d *models.DetectedApplication) error
}

// ApplicationChecker answers the rejection gate: does the user already
// track an application for this company?
type ApplicationChecker interface {
	ExistsForCompany(ctx context.Context, userID int64, companyName string) (bool, error)
}

// AccountStats summarises one account's sync run.
type AccountStats struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// AccountError records a failed account in a multi-account run.
type AccountError struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	Error     string `json:"error"`
}

// Summary aggregates a multi-account run.
type Summary struct {
	AccountsProcessed    int            `json:"accounts_processed"`
	AccountsSucceeded    int            `json:"accounts_succeeded"`
	AccountsFailed       int            `json:"accounts_failed"`
	TotalEmailsProcessed int            `json:"total_emails_processed"`
	TotalDetectedCreated int            `json:"total_detected_created"`
	Errors               []AccountError `json:"errors"`
}

// Service runs sync passes over mail accounts. Everything is
// sequential: messages within an account one at a time, accounts one
// at a time.
type Service struct {
	source       MessageSource
	processor    Processor
	refresher    TokenRefresher
	accounts     AccountStore
	detected     DetectedStore
	applications ApplicationChecker
	denylist     map[string]bool

	now func() time.Time
}

// Config holds the dependencies for a sync service.
type Config struct {
	Source          MessageSource
	Processor       Processor
	Refresher       TokenRefresher
	Accounts        AccountStore
	Detected        DetectedStore
	Applications    ApplicationChecker
	CompanyDenylist []string
}

// New creates a sync service.
func New(cfg Config) *Service {
	deny := make(map[string]bool, len(cfg.CompanyDenylist))
	for _, w := range cfg.CompanyDenylist {
		deny[strings.ToLower(w)] = true
	}
	return &Service{
		source:       cfg.Source,
		processor:    cfg.Processor,
		refresher:    cfg.Refresher,
		accounts:     cfg.Accounts,
		detected:     cfg.Detected,
		applications: cfg.Applications,
		denylist:     deny,
		now:          time.Now,
	}
}

// SyncAccount syncs one account. Inactive accounts return immediately
// with zero stats. Token refresh failures and fetch-level failures are
// fatal for the account and propagate; per-message failures are counted
// and the batch continues. last_sync_at is updated whenever the batch
// ran to completion.
func (s *Service) SyncAccount(ctx context.Context, account *models.MailAccount, maxResults int) (AccountStats, error) {
	var stats AccountStats

	if !account.IsActive {
		slog.Debug("skipping inactive account", "account_id", account.ID)
		return stats, nil
	}

	if err := s.ensureFreshToken(ctx, account); err != nil {
		return stats, err
	}

	messages, err := s.source.FetchRecent(ctx, account.AccessToken, maxResults)
	if err != nil {
		return stats, fmt.Errorf("fetch messages: %w", err)
	}

	for _, msg := range messages {
		stats.Processed++
		s.processMessage(ctx, account, msg, &stats)
	}

	if err := s.accounts.TouchLastSync(ctx, account.ID); err != nil {
		slog.Warn("failed to update last_sync_at",
			"account_id", account.ID,
			"error", err,
		)
	}

	slog.Info("account sync complete",
		"account_id", account.ID,
		"email", account.Email,
		"processed", stats.Processed,
		"created", stats.Created,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
	)

	return stats, nil
}

// ensureFreshToken refreshes the access token when it has expired and a
// refresh token exists. Refresh failure is fatal for the account's run
// and leaves the stored account untouched.
func (s *Service) ensureFreshToken(ctx context.Context, account *models.MailAccount) error {
	if !account.TokenExpired(s.now()) || account.RefreshToken == "" {
		return nil
	}

	accessToken, expiry, err := s.refresher.Refresh(ctx, account)
	if err != nil {
		return fmt.Errorf("refresh token for account %d: %w", account.ID, err)
	}

	if err := s.accounts.SaveTokens(ctx, account.ID, accessToken, expiry); err != nil {
		return fmt.Errorf("persist refreshed token for account %d: %w", account.ID, err)
	}

	account.AccessToken = accessToken
	account.TokenExpiry = &expiry

	slog.Info("access token refreshed", "account_id", account.ID, "expiry", expiry)
	return nil
}

// processMessage runs one message through dedup, classification and the
// persistence gates, updating stats. Each failure mode is counted
// distinctly; nothing here aborts the batch.
func (s *Service) processMessage(ctx context.Context, account *models.MailAccount, msg models.RawMessage, stats *AccountStats) {
	duplicate, err := s.detected.Exists(ctx, account.ID, msg.ExternalID)
	if err != nil {
		slog.Warn("dedup lookup failed",
			"account_id", account.ID,
			"message_id", msg.ExternalID,
			"error", err,
		)
		stats.Errors++
		return
	}
	if duplicate {
		stats.Skipped++
		return
	}

	result := s.processor.Process(ctx, msg)

	if !result.Category.JobRelated() || result.Confidence < MinConfidence {
		stats.Skipped++
		return
	}

	company := strings.TrimSpace(result.Fields.CompanyName)
	if len(company) < 2 || s.denylist[strings.ToLower(company)] {
		// Company name is required and must name a real employer.
		stats.Skipped++
		return
	}

	// Rejections are only useful once something is already tracked.
	if result.Category == models.CategoryRejection {
		tracked, err := s.applications.ExistsForCompany(ctx, account.UserID, company)
		if err != nil {
			slog.Warn("application lookup failed",
				"account_id", account.ID,
				"company", company,
				"error", err,
			)
			stats.Errors++
			return
		}
		if !tracked {
			stats.Skipped++
			return
		}
	}

	record := s.buildRecord(account, msg, result, company)
	if err := s.detected.Create(ctx, record); err != nil {
		slog.Warn("failed to persist detected application",
			"account_id", account.ID,
			"message_id", msg.ExternalID,
			"error", err,
		)
		stats.Errors++
		return
	}

	slog.Debug("detected application created",
		"account_id", account.ID,
		"company", company,
		"category", result.Category,
		"confidence", result.Confidence,
	)
	stats.Created++
}

// buildRecord maps a classification onto a pending detected
// application. detected_at comes from the message's own date when it
// parses, otherwise ingestion time.
func (s *Service) buildRecord(account *models.MailAccount, msg models.RawMessage, result models.ClassificationResult, company string) *models.DetectedApplication {
	detectedAt := s.now()
	if t, ok := classifier.ParseMessageDate(msg.Date); ok {
		detectedAt = t
	}

	return &models.DetectedApplication{
		AccountID:         account.ID,
		ExternalMessageID: msg.ExternalID,
		CompanyName:       company,
		Position:          result.Fields.Position,
		TechStack:         result.Fields.TechStack,
		SourcePlatform:    result.Fields.SourcePlatform,
		AppliedDate:       parseDay(result.Fields.AppliedDate),
		ContactEmail:      result.Fields.ContactEmail,
		ContactPhone:      result.Fields.ContactPhone,
		SalaryRange:       result.Fields.SalaryRange,
		Deadline:          parseDay(result.Fields.Deadline),
		ConfidenceScore:   result.Confidence,
		ReviewStatus:      models.ReviewPending,
		DetectedAt:        detectedAt,
	}
}

// SyncAll syncs every active account, isolating failures per account.
// One bad account never blocks the others.
func (s *Service) SyncAll(ctx context.Context, maxPerAccount int) (Summary, error) {
	runID := uuid.New().String()
	start := s.now()

	accounts, err := s.accounts.ListActive(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list active accounts: %w", err)
	}

	slog.Info("starting sync run",
		"run_id", runID,
		"accounts", len(accounts),
		"max_per_account", maxPerAccount,
	)

	summary := Summary{Errors: []AccountError{}}
	for i := range accounts {
		account := &accounts[i]
		summary.AccountsProcessed++

		stats, err := s.SyncAccount(ctx, account, maxPerAccount)
		if err != nil {
			slog.Error("account sync failed",
				"run_id", runID,
				"account_id", account.ID,
				"email", account.Email,
				"error", err,
			)
			summary.AccountsFailed++
			summary.Errors = append(summary.Errors, AccountError{
				AccountID: account.ID,
				Email:     account.Email,
				Error:     err.Error(),
			})
			continue
		}

		summary.AccountsSucceeded++
		summary.TotalEmailsProcessed += stats.Processed
		summary.TotalDetectedCreated += stats.Created
	}

	slog.Info("sync run complete",
		"run_id", runID,
		"accounts_succeeded", summary.AccountsSucceeded,
		"accounts_failed", summary.AccountsFailed,
		"emails_processed", summary.TotalEmailsProcessed,
		"detected_created", summary.TotalDetectedCreated,
		"elapsed", time.Since(start),
	)

	return summary, nil
}

// parseDay converts a normalised YYYY-MM-DD string to a date pointer.
func parseDay(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
