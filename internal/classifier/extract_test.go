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

package classifier

import (
	"testing"
	"time"
)

func TestExtractCompanyName(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name    string
		subject string
		body    string
		sender  string
		want    string
	}{
		{
			name:    "from content",
			subject: "Thank you for applying to Stripe",
			body:    "We'll review your application soon.",
			sender:  "noreply@stripe.com",
			want:    "Stripe",
		},
		{
			name:    "multi word company",
			subject: "Acme Labs has received your application",
			body:    "",
			sender:  "jobs@acmelabs.io",
			want:    "Acme Labs",
		},
		{
			name:    "article stripped",
			subject: "",
			body:    "You applied for a position at The Boring Company.",
			sender:  "hiring@boringcompany.com",
			want:    "Boring Company",
		},
		{
			name:    "sender domain fallback",
			subject: "Application received",
			body:    "We'll be in touch.",
			sender:  "careers@datadog.com",
			want:    "Datadog",
		},
		{
			name:    "personal provider never a company",
			subject: "Application received",
			body:    "Thanks for reaching out.",
			sender:  "recruiter123@gmail.com",
			want:    "",
		},
		{
			name:    "job board never a company",
			subject: "Application received",
			body:    "The employer has been notified.",
			sender:  "apply@linkedin.com",
			want:    "",
		},
		{
			name:    "denylisted content match falls through",
			subject: "Thank you for applying to Company",
			body:    "",
			sender:  "team@figma.com",
			want:    "Figma",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.extractCompanyName(tt.subject, tt.body, tt.sender)
			if got != tt.want {
				t.Errorf("extractCompanyName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractPosition(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		want    string
	}{
		{
			name:    "labelled",
			subject: "Position: Backend Engineer",
			body:    "",
			want:    "Backend Engineer",
		},
		{
			name:    "application for phrasing",
			subject: "",
			body:    "Your application for the Software Engineer position has been received.",
			want:    "Software Engineer",
		},
		{
			name:    "filler word rejected",
			subject: "",
			body:    "Thank you for your application for the role.",
			want:    "",
		},
		{
			name:    "lowercase prose never a title",
			subject: "",
			body:    "we would love to chat about the role.",
			want:    "",
		},
		{
			name:    "bare capitalised title",
			subject: "",
			body:    "You seem like a great fit for the Senior Backend Engineer position.",
			want:    "Senior Backend Engineer",
		},
		{
			name: "absent",
			body: "We received your application.",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractPosition(tt.subject, tt.body)
			if got != tt.want {
				t.Errorf("extractPosition() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractContactPhone(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "formatted US number",
			body: "Call us at +1 (555) 123-4567 with questions.",
			want: "15551234567",
		},
		{
			name: "too short",
			body: "Reply 12345 to confirm.",
			want: "",
		},
		{
			name: "none",
			body: "No numbers here.",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractContactPhone(tt.body)
			if got != tt.want {
				t.Errorf("extractContactPhone() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractSalaryRange(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"Base salary $120,000 - $150,000 plus equity.", "$120,000 - $150,000"},
		{"Compensation: £70,000", "£70,000"},
		{"Around $90k to $110k depending on experience.", "$90k to $110k"},
		{"Competitive salary of 120000 per year.", ""}, // no currency symbol
	}

	for _, tt := range tests {
		got := extractSalaryRange(tt.body)
		if got != tt.want {
			t.Errorf("extractSalaryRange(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestExtractAppliedDate(t *testing.T) {
	got := extractAppliedDate("", "You applied on December 31, 2024.", "")
	if got != "2024-12-31" {
		t.Errorf("content date = %q, want 2024-12-31", got)
	}

	got = extractAppliedDate("", "We received your application.", "Wed, 15 Jan 2025 09:30:00 -0500")
	if got != "2025-01-15" {
		t.Errorf("header fallback = %q, want 2025-01-15", got)
	}

	got = extractAppliedDate("", "We received your application.", "not a date")
	if got != "" {
		t.Errorf("unparseable = %q, want empty", got)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"January 15, 2025", "2025-01-15", true},
		{"Jan 15 2025", "2025-01-15", true},
		{"2025-01-15", "2025-01-15", true},
		{"01/15/2025", "2025-01-15", true},
		{"1/15/25", "2025-01-15", true},
		{"soonish", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizeDate(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("normalizeDate(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseMessageDate(t *testing.T) {
	got, ok := ParseMessageDate("Tue, 14 Jan 2025 10:00:00 +0000")
	if !ok {
		t.Fatal("expected RFC 5322 date to parse")
	}
	want := time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed = %v, want %v", got, want)
	}

	if _, ok := ParseMessageDate(""); ok {
		t.Error("empty string should not parse")
	}
	if _, ok := ParseMessageDate("tomorrow"); ok {
		t.Error("garbage should not parse")
	}
}
