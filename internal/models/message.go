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

// Package models defines the data structures shared across the email sync pipeline.
package models

// Category is the job-search classification of an email message.
type Category string

const (
	CategoryApplication Category = "application"
	CategoryRejection   Category = "rejection"
	CategoryAssessment  Category = "assessment"
	CategoryInterview   Category = "interview"
	CategoryInteraction Category = "interaction"
	CategoryUnknown     Category = "unknown"
)

// JobRelated reports whether the category qualifies for persistence.
// Unknown never qualifies.
func (c Category) JobRelated() bool {
	switch c {
	case CategoryApplication, CategoryRejection, CategoryAssessment,
		CategoryInterview, CategoryInteraction:
		return true
	}
	return false
}

// RawMessage is a normalised email fetched from a mailbox. It lives for
// one sync pass and is never persisted.
type RawMessage struct {
	ExternalID string `json:"external_id"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Sender     string `json:"sender"`
	Date       string `json:"date,omitempty"` // raw Date header, best effort
}

// Fields holds the structured data extracted from a message. An empty
// string means the field was not found; callers normalise, not the
// extractors.
type Fields struct {
	CompanyName    string `json:"company_name,omitempty"`
	Position       string `json:"position,omitempty"`
	TechStack      string `json:"tech_stack,omitempty"`
	SourcePlatform string `json:"source_platform,omitempty"`
	AppliedDate    string `json:"applied_date,omitempty"` // YYYY-MM-DD
	ContactEmail   string `json:"contact_email,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	SalaryRange    string `json:"salary_range,omitempty"`
	Deadline       string `json:"deadline,omitempty"` // YYYY-MM-DD
}

// Classification origins.
const (
	OriginPattern    = "pattern"
	OriginGenerative = "generative"
)

// ClassificationResult is the unified output shape shared by the
// deterministic and generative classifiers.
//
// Invariants: Confidence is in [0,1]; a CategoryUnknown result must never
// be persisted as a detected application. A non-empty Err means the
// generative pass produced no usable signal — it is a recovered failure,
// not a crash.
type ClassificationResult struct {
	Category        Category `json:"category"`
	Confidence      float64  `json:"confidence"`
	Fields          Fields   `json:"fields"`
	Origin          string   `json:"origin"`
	Escalated       bool     `json:"escalated"`
	NeedsEscalation bool     `json:"needs_escalation"`
	Err             string   `json:"error,omitempty"`
}
