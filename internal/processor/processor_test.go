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

package processor

import (
	"context"
	"testing"

	"github.com/jessemorales01/job-application-process/internal/models"
)

// --- Mock classifiers ---

type mockPattern struct {
	result models.ClassificationResult
}

func (m *mockPattern) Classify(subject, body, sender, date string) models.ClassificationResult {
	return m.result
}

type mockFallback struct {
	result models.ClassificationResult
	calls  int
}

func (m *mockFallback) Analyze(_ context.Context, subject, body, sender string) models.ClassificationResult {
	m.calls++
	return m.result
}

func patternResult(cat models.Category, conf float64) models.ClassificationResult {
	return models.ClassificationResult{
		Category:        cat,
		Confidence:      conf,
		Origin:          models.OriginPattern,
		NeedsEscalation: conf < 0.7 || cat == models.CategoryUnknown,
	}
}

func generativeResult(cat models.Category, conf float64, company string) models.ClassificationResult {
	return models.ClassificationResult{
		Category:   cat,
		Confidence: conf,
		Origin:     models.OriginGenerative,
		Fields:     models.Fields{CompanyName: company},
	}
}

var testMsg = models.RawMessage{
	ExternalID: "m1",
	Subject:    "subject",
	Body:       "body",
	Sender:     "a@b.com",
}

func TestProcessConfidentRejectionSkipsFallback(t *testing.T) {
	fallback := &mockFallback{}
	p := New(
		&mockPattern{result: patternResult(models.CategoryRejection, 0.80)},
		fallback,
	)

	result := p.Process(context.Background(), testMsg)
	if fallback.calls != 0 {
		t.Fatalf("fallback calls = %d, want 0", fallback.calls)
	}
	if result.Category != models.CategoryRejection || result.Escalated {
		t.Errorf("result = %+v, want non-escalated rejection", result)
	}
}

func TestProcessApplicationAlwaysEscalates(t *testing.T) {
	fallback := &mockFallback{
		result: generativeResult(models.CategoryApplication, 0.95, "Google"),
	}
	p := New(
		&mockPattern{result: patternResult(models.CategoryApplication, 0.85)},
		fallback,
	)

	result := p.Process(context.Background(), testMsg)
	if fallback.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fallback.calls)
	}
	if result.Origin != models.OriginGenerative {
		t.Errorf("origin = %q, want generative result preferred", result.Origin)
	}
	if !result.Escalated {
		t.Error("result not marked escalated")
	}
	if result.Fields.CompanyName != "Google" {
		t.Errorf("company = %q, want Google", result.Fields.CompanyName)
	}
}

func TestProcessUnknownAlwaysEscalates(t *testing.T) {
	fallback := &mockFallback{
		result: generativeResult(models.CategoryInterview, 0.8, ""),
	}
	p := New(
		&mockPattern{result: patternResult(models.CategoryUnknown, 0)},
		fallback,
	)

	result := p.Process(context.Background(), testMsg)
	if fallback.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fallback.calls)
	}
	if result.Category != models.CategoryInterview {
		t.Errorf("category = %q, want interview from fallback", result.Category)
	}
}

func TestProcessKeepsPatternWhenFallbackWeaker(t *testing.T) {
	// Assessment at 0.75 escalates nothing by itself, but force the path
	// with a low-confidence pattern result.
	fallback := &mockFallback{
		result: generativeResult(models.CategoryAssessment, 0.3, ""),
	}
	det := patternResult(models.CategoryAssessment, 0.75)
	det.NeedsEscalation = true
	p := New(&mockPattern{result: det}, fallback)

	result := p.Process(context.Background(), testMsg)
	if result.Origin != models.OriginPattern {
		t.Errorf("origin = %q, want pattern result kept", result.Origin)
	}
	if result.Category != models.CategoryAssessment || result.Confidence != 0.75 {
		t.Errorf("result = %+v, want assessment at 0.75", result)
	}
	if !result.Escalated {
		t.Error("kept pattern result should still be marked escalated")
	}
}

func TestProcessFallbackErrorSurfacesForApplication(t *testing.T) {
	fallback := &mockFallback{
		result: models.ClassificationResult{
			Category: models.CategoryUnknown,
			Origin:   models.OriginGenerative,
			Err:      "completion API returned HTTP 429",
		},
	}
	p := New(
		&mockPattern{result: patternResult(models.CategoryApplication, 0.85)},
		fallback,
	)

	result := p.Process(context.Background(), testMsg)
	if result.Err == "" {
		t.Fatal("expected error tag to surface")
	}
	if result.Category != models.CategoryUnknown {
		t.Errorf("category = %q, want unknown", result.Category)
	}
	if !result.Escalated {
		t.Error("result not marked escalated")
	}
}

func TestProcessFallbackErrorKeepsOtherCategories(t *testing.T) {
	fallback := &mockFallback{
		result: models.ClassificationResult{
			Category: models.CategoryUnknown,
			Origin:   models.OriginGenerative,
			Err:      "timeout",
		},
	}
	det := patternResult(models.CategoryRejection, 0.5)
	p := New(&mockPattern{result: det}, fallback)

	result := p.Process(context.Background(), testMsg)
	if result.Err != "" {
		t.Fatalf("error tag leaked into kept pattern result: %s", result.Err)
	}
	if result.Category != models.CategoryRejection {
		t.Errorf("category = %q, want rejection kept", result.Category)
	}
	if !result.Escalated {
		t.Error("result not marked escalated")
	}
}

func TestProcessDoubleUnknownSurfacesFallback(t *testing.T) {
	fallback := &mockFallback{
		result: generativeResult(models.CategoryUnknown, 0, ""),
	}
	p := New(
		&mockPattern{result: patternResult(models.CategoryUnknown, 0)},
		fallback,
	)

	result := p.Process(context.Background(), testMsg)
	if result.Origin != models.OriginGenerative {
		t.Errorf("origin = %q, want the fallback's view surfaced", result.Origin)
	}
	if !result.NeedsEscalation {
		t.Error("double unknown must keep the escalation flag")
	}
}
