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

// Package classifier provides the deterministic first-pass email
// classifier: ordered regex pattern families with fixed per-category
// confidence, plus a best-effort field extraction grammar.
package classifier

import (
	"regexp"
	"strings"

	"github.com/jessemorales01/job-application-process/internal/config"
	"github.com/jessemorales01/job-application-process/internal/models"
)

// Fixed confidence per category. Check order gives
// application > rejection > assessment priority; first match wins.
const (
	applicationConfidence = 0.85
	rejectionConfidence   = 0.80
	assessmentConfidence  = 0.75

	// EscalationThreshold is the confidence below which a result is
	// handed to the generative fallback.
	EscalationThreshold = 0.7
)

var applicationPatterns = compileAll(
	`thank you for (?:your )?application`,
	`we received your application`,
	`application (?:has been )?submitted`,
	`thank you for applying`,
)

var rejectionPatterns = compileAll(
	`we've decided to move forward`,
	`unfortunately`,
	`we will not be moving forward`,
	`we have chosen to pursue`,
)

var assessmentPatterns = compileAll(
	`assessment`,
	`take-home`,
	`coding challenge`,
	`technical evaluation`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Classifier classifies messages by pattern matching. It is stateless
// apart from the configured data lists and safe for concurrent use.
type Classifier struct {
	denylist  map[string]bool
	jobBoards []string
	personal  []string
}

// New creates a classifier with the given data lists.
func New(cfg config.ClassifyConfig) *Classifier {
	deny := make(map[string]bool, len(cfg.CompanyDenylist))
	for _, w := range cfg.CompanyDenylist {
		deny[strings.ToLower(w)] = true
	}
	return &Classifier{
		denylist:  deny,
		jobBoards: cfg.JobBoardDomains,
		personal:  cfg.PersonalDomains,
	}
}

// Classify runs the pattern pass over a message. date is the raw Date
// header and is only used as the applied-date fallback; it may be empty.
//
// No pattern match yields CategoryUnknown with zero confidence and no
// extracted fields.
func (c *Classifier) Classify(subject, body, sender, date string) models.ClassificationResult {
	text := strings.ToLower(subject + " " + body)

	result := models.ClassificationResult{
		Category: models.CategoryUnknown,
		Origin:   models.OriginPattern,
	}

	switch {
	case matchesAny(text, applicationPatterns):
		result.Category = models.CategoryApplication
		result.Confidence = applicationConfidence
		result.Fields = c.extractFields(subject, body, sender, date, false)
	case matchesAny(text, rejectionPatterns):
		result.Category = models.CategoryRejection
		result.Confidence = rejectionConfidence
		result.Fields = c.extractFields(subject, body, sender, date, false)
	case matchesAny(text, assessmentPatterns):
		result.Category = models.CategoryAssessment
		result.Confidence = assessmentConfidence
		result.Fields = c.extractFields(subject, body, sender, date, true)
	}

	result.NeedsEscalation = result.Confidence < EscalationThreshold ||
		result.Category == models.CategoryUnknown

	return result
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// extractFields runs the extraction grammar. Each field is independent
// and best-effort: a miss leaves the field empty, never a placeholder.
func (c *Classifier) extractFields(subject, body, sender, date string, withDeadline bool) models.Fields {
	f := models.Fields{
		CompanyName:    c.extractCompanyName(subject, body, sender),
		Position:       extractPosition(subject, body),
		TechStack:      extractTechStack(subject, body),
		SourcePlatform: c.extractSourcePlatform(sender),
		AppliedDate:    extractAppliedDate(subject, body, date),
		ContactEmail:   extractContactEmail(body),
		ContactPhone:   extractContactPhone(body),
		SalaryRange:    extractSalaryRange(body),
	}
	if withDeadline {
		f.Deadline = extractDeadline(body)
	}
	return f
}
