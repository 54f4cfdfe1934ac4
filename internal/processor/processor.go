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

// Package processor orchestrates the two classifiers: the free pattern
// pass always runs, the paid generative pass only when the first is
// inconclusive or the category demands higher precision.
package processor

import (
	"context"

	"github.com/jessemorales01/job-application-process/internal/classifier"
	"github.com/jessemorales01/job-application-process/internal/models"
)

// PatternClassifier is the deterministic first pass.
type PatternClassifier interface {
	Classify(subject, body, sender, date string) models.ClassificationResult
}

// FallbackClassifier is the generative second pass. It reports failure
// through the result's Err tag, never through a Go error.
type FallbackClassifier interface {
	Analyze(ctx context.Context, subject, body, sender string) models.ClassificationResult
}

// Processor reconciles the two classifier results into one.
type Processor struct {
	pattern  PatternClassifier
	fallback FallbackClassifier
}

// New creates a hybrid processor.
func New(pattern PatternClassifier, fallback FallbackClassifier) *Processor {
	return &Processor{pattern: pattern, fallback: fallback}
}

// Process classifies one message.
//
// Escalation, first rule that fires wins:
//  1. pattern says application — always escalate, accuracy matters most here
//  2. pattern says unknown — always escalate
//  3. pattern flags needs-escalation — escalate
//  4. otherwise keep the pattern result and skip the paid call
func (p *Processor) Process(ctx context.Context, msg models.RawMessage) models.ClassificationResult {
	det := p.pattern.Classify(msg.Subject, msg.Body, msg.Sender, msg.Date)

	if !shouldEscalate(det) {
		return det
	}

	gen := p.fallback.Analyze(ctx, msg.Subject, msg.Body, msg.Sender)
	gen.Escalated = true
	gen.NeedsEscalation = gen.Confidence < classifier.EscalationThreshold ||
		gen.Category == models.CategoryUnknown

	if gen.Err != "" {
		// The fallback produced no usable signal. For the application
		// category and for a failed pattern pass there is nothing better
		// to fall back to, so surface the tagged failure.
		if det.Category == models.CategoryApplication || det.Category == models.CategoryUnknown {
			return gen
		}
		det.Escalated = true
		return det
	}

	// Prefer the fallback when it filled the accuracy-critical gap or
	// is simply more certain.
	if gen.Category == models.CategoryApplication && gen.Fields.CompanyName != "" {
		return gen
	}
	if gen.Confidence > det.Confidence {
		return gen
	}

	// The fallback lost on the rules above. If the pattern pass also
	// failed, still surface the fallback's raw view — the caller needs
	// to see "we tried and got nothing" rather than a bare unknown.
	if det.Category == models.CategoryUnknown {
		return gen
	}

	det.Escalated = true
	return det
}

func shouldEscalate(det models.ClassificationResult) bool {
	switch {
	case det.Category == models.CategoryApplication:
		return true
	case det.Category == models.CategoryUnknown:
		return true
	case det.NeedsEscalation:
		return true
	}
	return false
}
