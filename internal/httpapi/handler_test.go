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

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jessemorales01/job-application-process/internal/models"
	"github.com/jessemorales01/job-application-process/internal/syncer"
)

type mockSync struct {
	summary syncer.Summary
	err     error
	gotMax  int
}

func (m *mockSync) SyncAll(_ context.Context, maxPerAccount int) (syncer.Summary, error) {
	m.gotMax = maxPerAccount
	return m.summary, m.err
}

type mockClassifier struct {
	result models.ClassificationResult
	gotMsg models.RawMessage
}

func (m *mockClassifier) Process(_ context.Context, msg models.RawMessage) models.ClassificationResult {
	m.gotMsg = msg
	return m.result
}

type mockDetectedLister struct {
	records   []models.DetectedApplication
	gotStatus string
}

func (m *mockDetectedLister) ListByStatus(_ context.Context, status string) ([]models.DetectedApplication, error) {
	m.gotStatus = status
	return m.records, nil
}

func okPing(_ context.Context) error { return nil }

func newTestHandler(sync *mockSync, cls *mockClassifier) *Handler {
	return NewHandler(HandlerConfig{
		Sync:       sync,
		Classifier: cls,
		Detected:   &mockDetectedLister{},
		MaxResults: 25,
		PGPing:     okPing,
		RedisPing:  okPing,
	})
}

func TestServeSync(t *testing.T) {
	sync := &mockSync{summary: syncer.Summary{
		AccountsProcessed:    2,
		AccountsSucceeded:    2,
		TotalEmailsProcessed: 7,
		TotalDetectedCreated: 3,
		Errors:               []syncer.AccountError{},
	}}
	h := newTestHandler(sync, &mockClassifier{})

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sync.gotMax != 25 {
		t.Errorf("max per account = %d, want configured 25", sync.gotMax)
	}

	var got syncer.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TotalDetectedCreated != 3 {
		t.Errorf("total_detected_created = %d, want 3", got.TotalDetectedCreated)
	}
}

func TestServeSyncMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&mockSync{}, &mockClassifier{})

	req := httptest.NewRequest(http.MethodGet, "/sync", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestServeSyncFailure(t *testing.T) {
	h := newTestHandler(&mockSync{err: errors.New("list active accounts: down")}, &mockClassifier{})

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestServeClassify(t *testing.T) {
	cls := &mockClassifier{result: models.ClassificationResult{
		Category:   models.CategoryApplication,
		Confidence: 0.85,
		Origin:     models.OriginPattern,
		Fields:     models.Fields{CompanyName: "Acme"},
	}}
	h := newTestHandler(&mockSync{}, cls)

	body := `{"external_id": "m1", "subject": "Thank you for applying", "sender": "a@acme.com"}`
	req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cls.gotMsg.Subject != "Thank you for applying" {
		t.Errorf("classifier saw subject %q", cls.gotMsg.Subject)
	}

	var got models.ClassificationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Category != models.CategoryApplication || got.Fields.CompanyName != "Acme" {
		t.Errorf("result = %+v", got)
	}
}

func TestServeClassifyBadJSON(t *testing.T) {
	h := newTestHandler(&mockSync{}, &mockClassifier{})

	req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServeDetected(t *testing.T) {
	lister := &mockDetectedLister{records: []models.DetectedApplication{
		{ID: 1, CompanyName: "Acme", ReviewStatus: models.ReviewPending},
	}}
	h := NewHandler(HandlerConfig{
		Sync:       &mockSync{},
		Classifier: &mockClassifier{},
		Detected:   lister,
		MaxResults: 25,
		PGPing:     okPing,
		RedisPing:  okPing,
	})

	req := httptest.NewRequest(http.MethodGet, "/detected", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if lister.gotStatus != models.ReviewPending {
		t.Errorf("status filter = %q, want default pending", lister.gotStatus)
	}

	var got []models.DetectedApplication
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].CompanyName != "Acme" {
		t.Errorf("records = %+v", got)
	}
}

func TestServeDetectedBadStatus(t *testing.T) {
	h := newTestHandler(&mockSync{}, &mockClassifier{})

	req := httptest.NewRequest(http.MethodGet, "/detected?status=everything", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServeHealth(t *testing.T) {
	h := newTestHandler(&mockSync{}, &mockClassifier{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestServeHealthUnhealthy(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Sync:       &mockSync{},
		Classifier: &mockClassifier{},
		MaxResults: 25,
		PGPing:     okPing,
		RedisPing: func(_ context.Context) error {
			return errors.New("connection refused")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
