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

// Package store provides the Postgres-backed persistence used by the
// sync pipeline: mail accounts, detected applications, and the
// application-existence lookup for the rejection gate.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores bundles the three stores sharing one connection pool.
type Stores struct {
	Accounts     *AccountStore
	Detected     *DetectedStore
	Applications *ApplicationStore
}

// New creates the stores and ensures their schema. Tables are created
// in dependency order: applications first, so detected_applications can
// carry its weak merged_into reference.
func New(ctx context.Context, pool *pgxpool.Pool) (*Stores, error) {
	if err := ensureSchema(ctx, pool); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	slog.Info("stores initialised")
	return &Stores{
		Accounts:     &AccountStore{pool: pool},
		Detected:     &DetectedStore{pool: pool},
		Applications: &ApplicationStore{pool: pool},
	}, nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS applications (
			id           BIGSERIAL PRIMARY KEY,
			company_name TEXT NOT NULL,
			position     TEXT DEFAULT '',
			created_by   BIGINT NOT NULL,
			created_at   TIMESTAMPTZ DEFAULT NOW(),
			updated_at   TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_applications_owner_company
			ON applications(created_by, LOWER(company_name));

		CREATE TABLE IF NOT EXISTS mail_accounts (
			id            BIGSERIAL PRIMARY KEY,
			user_id       BIGINT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			access_token  TEXT DEFAULT '',
			refresh_token TEXT DEFAULT '',
			token_expiry  TIMESTAMPTZ,
			is_active     BOOLEAN DEFAULT TRUE,
			last_sync_at  TIMESTAMPTZ,
			created_at    TIMESTAMPTZ DEFAULT NOW(),
			updated_at    TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_mail_accounts_active ON mail_accounts(is_active);

		CREATE TABLE IF NOT EXISTS detected_applications (
			id                  BIGSERIAL PRIMARY KEY,
			account_id          BIGINT NOT NULL REFERENCES mail_accounts(id) ON DELETE CASCADE,
			external_message_id TEXT NOT NULL,
			company_name        TEXT NOT NULL,
			position            TEXT DEFAULT '',
			tech_stack          TEXT DEFAULT '',
			source_platform     TEXT DEFAULT '',
			applied_date        DATE,
			contact_email       TEXT DEFAULT '',
			contact_phone       TEXT DEFAULT '',
			salary_range        TEXT DEFAULT '',
			deadline            DATE,
			confidence_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
			review_status       TEXT DEFAULT 'pending',
			detected_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			reviewed_at         TIMESTAMPTZ,
			merged_into         BIGINT REFERENCES applications(id) ON DELETE SET NULL,
			created_at          TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(account_id, external_message_id)
		);
		CREATE INDEX IF NOT EXISTS idx_detected_status ON detected_applications(review_status);
		CREATE INDEX IF NOT EXISTS idx_detected_account ON detected_applications(account_id);
	`)
	return err
}
