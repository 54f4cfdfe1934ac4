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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jessemorales01/job-application-process/internal/models"
)

// DetectedStore persists detected applications. (account_id,
// external_message_id) is unique — the dedup invariant lives here.
type DetectedStore struct {
	pool *pgxpool.Pool
}

// Exists reports whether a message has already produced a record for
// this account.
func (s *DetectedStore) Exists(ctx context.Context, accountID int64, externalMessageID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM detected_applications
			WHERE account_id = $1 AND external_message_id = $2
		)
	`, accountID, externalMessageID).Scan(&exists)
	return exists, err
}

// Create inserts a detected application and fills in its id.
func (s *DetectedStore) Create(ctx context.Context, d *models.DetectedApplication) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO detected_applications
			(account_id, external_message_id, company_name, position,
			 tech_stack, source_platform, applied_date, contact_email,
			 contact_phone, salary_range, deadline, confidence_score,
			 review_status, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`,
		d.AccountID, d.ExternalMessageID, d.CompanyName, d.Position,
		d.TechStack, d.SourcePlatform, d.AppliedDate, d.ContactEmail,
		d.ContactPhone, d.SalaryRange, d.Deadline, d.ConfidenceScore,
		d.ReviewStatus, d.DetectedAt,
	).Scan(&d.ID)
}

// ListByStatus returns detected applications in a review state, newest
// first. Used by the review workflow.
func (s *DetectedStore) ListByStatus(ctx context.Context, status string) ([]models.DetectedApplication, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_id, external_message_id, company_name, position,
		       tech_stack, source_platform, applied_date, contact_email,
		       contact_phone, salary_range, deadline, confidence_score,
		       review_status, detected_at, reviewed_at, merged_into
		FROM detected_applications
		WHERE review_status = $1
		ORDER BY detected_at DESC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetected(rows)
}

func collectDetected(rows pgx.Rows) ([]models.DetectedApplication, error) {
	var records []models.DetectedApplication
	for rows.Next() {
		var d models.DetectedApplication
		if err := rows.Scan(
			&d.ID, &d.AccountID, &d.ExternalMessageID, &d.CompanyName, &d.Position,
			&d.TechStack, &d.SourcePlatform, &d.AppliedDate, &d.ContactEmail,
			&d.ContactPhone, &d.SalaryRange, &d.Deadline, &d.ConfidenceScore,
			&d.ReviewStatus, &d.DetectedAt, &d.ReviewedAt, &d.MergedInto,
		); err != nil {
			return nil, err
		}
		records = append(records, d)
	}
	return records, rows.Err()
}
