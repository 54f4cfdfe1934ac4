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

// Package oauth exchanges a stored refresh token for a fresh access
// token. The browser consent flow that produced the refresh token lives
// in the CRM layer; only the refresh contract is needed here.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/jessemorales01/job-application-process/internal/models"
)

// ErrNoRefreshToken means the account cannot be refreshed and needs to
// be reconnected through the consent flow.
var ErrNoRefreshToken = errors.New("no refresh token available")

// Refresher refreshes access tokens against an OAuth2 token endpoint.
type Refresher struct {
	cfg *oauth2.Config
}

// NewRefresher creates a refresher for the given client credentials.
// tokenURL is normally Google's endpoint; tests point it elsewhere.
func NewRefresher(clientID, clientSecret, tokenURL string) *Refresher {
	return &Refresher{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: tokenURL,
			},
		},
	}
}

// Refresh exchanges the account's refresh token for a new access token
// and expiry. Failures propagate — a dead refresh token is fatal for
// the account's sync run.
func (r *Refresher) Refresh(ctx context.Context, account *models.MailAccount) (string, time.Time, error) {
	if account.RefreshToken == "" {
		return "", time.Time{}, ErrNoRefreshToken
	}

	src := r.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: account.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("refresh access token: %w", err)
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		// Some token endpoints omit expires_in; assume the usual hour.
		expiry = time.Now().Add(time.Hour)
	}

	return tok.AccessToken, expiry, nil
}
