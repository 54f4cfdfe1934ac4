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

package models

import "time"

// Review workflow statuses for a detected application.
const (
	ReviewPending  = "pending"
	ReviewAccepted = "accepted"
	ReviewRejected = "rejected"
	ReviewMerged   = "merged"
)

// MailAccount is a connected mailbox. The account row is owned by the
// CRM layer; the sync core only ever rewrites the access token, the
// token expiry, and last_sync_at.
type MailAccount struct {
	ID           int64
	UserID       int64
	Email        string
	AccessToken  string
	RefreshToken string
	TokenExpiry  *time.Time
	IsActive     bool
	LastSyncAt   *time.Time
}

// TokenExpired reports whether the access token has passed its expiry
// at the given instant. A missing expiry is treated as still valid.
func (a *MailAccount) TokenExpired(now time.Time) bool {
	return a.TokenExpiry != nil && !a.TokenExpiry.After(now)
}

// DetectedApplication is a system-proposed job application derived from
// an email, pending human review. Created only by the sync orchestrator;
// (AccountID, ExternalMessageID) is the dedup key.
type DetectedApplication struct {
	ID                int64      `json:"id"`
	AccountID         int64      `json:"account_id"`
	ExternalMessageID string     `json:"external_message_id"`
	CompanyName       string     `json:"company_name"`
	Position          string     `json:"position,omitempty"`
	TechStack         string     `json:"tech_stack,omitempty"`
	SourcePlatform    string     `json:"source_platform,omitempty"`
	AppliedDate       *time.Time `json:"applied_date,omitempty"`
	ContactEmail      string     `json:"contact_email,omitempty"`
	ContactPhone      string     `json:"contact_phone,omitempty"`
	SalaryRange       string     `json:"salary_range,omitempty"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	ConfidenceScore   float64    `json:"confidence_score"`
	ReviewStatus      string     `json:"review_status"`
	DetectedAt        time.Time  `json:"detected_at"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	MergedInto        *int64     `json:"merged_into,omitempty"` // weak reference; nulled when the application is deleted
}
