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

package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jessemorales01/job-application-process/internal/models"
)

// AccountStore reads mail accounts and writes back the few fields the
// sync core owns: access token, token expiry and last_sync_at.
type AccountStore struct {
	pool *pgxpool.Pool
}

const accountColumns = `
	id, user_id, email, access_token, refresh_token,
	token_expiry, is_active, last_sync_at
`

// ListActive returns every account with is_active set, ordered by id.
func (s *AccountStore) ListActive(ctx context.Context) ([]models.MailAccount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM mail_accounts
		WHERE is_active
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// Get retrieves a single account by id, nil if it does not exist.
func (s *AccountStore) Get(ctx context.Context, id int64) (*models.MailAccount, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM mail_accounts
		WHERE id = $1
	`, id)

	var a models.MailAccount
	err := scanAccount(row, &a)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveTokens persists a refreshed access token and its expiry.
func (s *AccountStore) SaveTokens(ctx context.Context, id int64, accessToken string, expiry time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE mail_accounts
		SET access_token = $1, token_expiry = $2, updated_at = NOW()
		WHERE id = $3
	`, accessToken, expiry, id)
	return err
}

// TouchLastSync sets last_sync_at to NOW(). Called unconditionally at
// the end of every sync run for the account.
func (s *AccountStore) TouchLastSync(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE mail_accounts
		SET last_sync_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

func scanAccount(row pgx.Row, a *models.MailAccount) error {
	return row.Scan(
		&a.ID, &a.UserID, &a.Email, &a.AccessToken, &a.RefreshToken,
		&a.TokenExpiry, &a.IsActive, &a.LastSyncAt,
	)
}

func collectAccounts(rows pgx.Rows) ([]models.MailAccount, error) {
	var accounts []models.MailAccount
	for rows.Next() {
		var a models.MailAccount
		if err := scanAccount(rows, &a); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
