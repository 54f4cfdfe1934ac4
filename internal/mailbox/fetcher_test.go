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

package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// gmailMessageJSON builds a format=full message response with a single
// text/plain body.
func gmailMessageJSON(id, subject, from, date, body string) map[string]any {
	return map[string]any{
		"id": id,
		"payload": map[string]any{
			"mimeType": "text/plain",
			"headers": []map[string]string{
				{"name": "Subject", "value": subject},
				{"name": "From", "value": from},
				{"name": "Date", "value": date},
			},
			"body": map[string]any{"data": b64(body)},
		},
	}
}

func newGmailServer(t *testing.T, messages map[string]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if r.URL.Path == "/users/me/messages" {
			var stubs []map[string]string
			for id := range messages {
				stubs = append(stubs, map[string]string{"id": id})
			}
			json.NewEncoder(w).Encode(map[string]any{"messages": stubs})
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/users/me/messages/")
		msg, ok := messages[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(msg)
	}))
}

func TestFetchRecent(t *testing.T) {
	server := newGmailServer(t, map[string]map[string]any{
		"msg-1": gmailMessageJSON(
			"msg-1",
			"Thank you for applying",
			"Acme Careers <careers@acme.com>",
			"Tue, 14 Jan 2025 10:00:00 +0000",
			"We received your application.",
		),
	})
	defer server.Close()

	f := NewFetcher(server.Client(), server.URL)
	messages, err := f.FetchRecent(context.Background(), "good-token", 10)
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}

	msg := messages[0]
	if msg.ExternalID != "msg-1" {
		t.Errorf("external id = %q", msg.ExternalID)
	}
	if msg.Subject != "Thank you for applying" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.Sender != "careers@acme.com" {
		t.Errorf("sender = %q, want bare address", msg.Sender)
	}
	if msg.Body != "We received your application." {
		t.Errorf("body = %q", msg.Body)
	}
}

func TestFetchRecentUnauthorized(t *testing.T) {
	server := newGmailServer(t, nil)
	defer server.Close()

	f := NewFetcher(server.Client(), server.URL)
	_, err := f.FetchRecent(context.Background(), "bad-token", 10)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestFetchRecentSkipsBrokenMessages(t *testing.T) {
	// msg-bad returns a server error on fetch; the batch keeps going.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/me/messages":
			fmt.Fprint(w, `{"messages": [{"id": "msg-bad"}, {"id": "msg-ok"}]}`)
		case strings.HasSuffix(r.URL.Path, "msg-bad"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			json.NewEncoder(w).Encode(gmailMessageJSON(
				"msg-ok", "Hello", "a@b.com", "", "body text",
			))
		}
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), server.URL)
	messages, err := f.FetchRecent(context.Background(), "token", 10)
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(messages) != 1 || messages[0].ExternalID != "msg-ok" {
		t.Fatalf("messages = %+v, want only msg-ok", messages)
	}
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	payload := gmailPart{
		MimeType: "multipart/alternative",
		Parts: []gmailPart{
			{MimeType: "text/html"},
			{MimeType: "text/plain"},
		},
	}
	payload.Parts[0].Body.Data = b64("<p>Hello <b>there</b></p>")
	payload.Parts[1].Body.Data = b64("Hello there")

	if got := extractBody(&payload); got != "Hello there" {
		t.Errorf("body = %q, want plain text part", got)
	}
}

func TestExtractBodyStripsHTML(t *testing.T) {
	payload := gmailPart{MimeType: "text/html"}
	payload.Parts = nil
	payload.Body.Data = b64("<html><style>p{color:red}</style><body><p>Thank you for applying to Acme.</p><br><div>We&amp;ll be in touch.</div></body></html>")

	got := extractBody(&payload)
	if !strings.Contains(got, "Thank you for applying to Acme.") {
		t.Errorf("stripped body = %q, missing paragraph text", got)
	}
	if strings.Contains(got, "<") || strings.Contains(got, "color:red") {
		t.Errorf("stripped body = %q, still contains markup", got)
	}
	if !strings.Contains(got, "We&ll be in touch.") {
		t.Errorf("stripped body = %q, entities not decoded", got)
	}
}

func TestSenderAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Careers <careers@acme.com>", "careers@acme.com"},
		{"careers@acme.com", "careers@acme.com"},
		{"  <a@b.com> ", "a@b.com"},
	}
	for _, tt := range tests {
		if got := senderAddress(tt.in); got != tt.want {
			t.Errorf("senderAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
