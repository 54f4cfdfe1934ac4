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

// Package mailbox provides a message fetcher that retrieves recent email
// content from the Gmail REST API and normalises it for classification.
package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jessemorales01/job-application-process/internal/models"
)

// DefaultBaseURL is the production Gmail API endpoint.
const DefaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// ErrUnauthorized indicates the account's credentials were rejected by
// the mailbox API. It is a hard error for the account's sync run and is
// never swallowed per-message.
var ErrUnauthorized = errors.New("mailbox authentication failed")

// Fetcher retrieves recent messages from the Gmail API.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
}

// NewFetcher creates a Gmail message fetcher.
func NewFetcher(httpClient *http.Client, baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// listResponse represents a page of the users/me/messages list response.
type listResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// FetchRecent retrieves up to maxResults recent messages. One page, no
// pagination guarantee beyond that. Per-message fetch or parse failures
// are skipped; an authentication failure on any call aborts the batch.
func (f *Fetcher) FetchRecent(ctx context.Context, accessToken string, maxResults int) ([]models.RawMessage, error) {
	params := url.Values{}
	params.Set("maxResults", strconv.Itoa(maxResults))
	listURL := fmt.Sprintf("%s/users/me/messages?%s", f.baseURL, params.Encode())

	var page listResponse
	if err := f.getJSON(ctx, accessToken, listURL, &page); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]models.RawMessage, 0, len(page.Messages))
	for _, stub := range page.Messages {
		msgURL := fmt.Sprintf("%s/users/me/messages/%s?format=full", f.baseURL, stub.ID)

		var raw gmailMessage
		if err := f.getJSON(ctx, accessToken, msgURL, &raw); err != nil {
			if errors.Is(err, ErrUnauthorized) {
				return nil, fmt.Errorf("fetch message %s: %w", stub.ID, err)
			}
			slog.Warn("skipping unfetchable message",
				"message_id", stub.ID,
				"error", err,
			)
			continue
		}

		msg, ok := parseMessage(&raw)
		if !ok {
			slog.Warn("skipping unparseable message", "message_id", stub.ID)
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (f *Fetcher) getJSON(ctx context.Context, accessToken, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gmail API request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("gmail API returned HTTP %d: %w", resp.StatusCode, ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		slog.Error("gmail API error", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("gmail API returned HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gmail response: %w", err)
	}
	return nil
}
