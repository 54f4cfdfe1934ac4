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

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplicationStore is the sync core's read-only view of the CRM's
// applications table. Only the rejection gate uses it.
type ApplicationStore struct {
	pool *pgxpool.Pool
}

// ExistsForCompany reports whether the user already tracks an
// application for the company, case-insensitively.
func (s *ApplicationStore) ExistsForCompany(ctx context.Context, userID int64, companyName string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM applications
			WHERE created_by = $1 AND LOWER(company_name) = LOWER($2)
		)
	`, userID, companyName).Scan(&exists)
	return exists, err
}
