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
	"encoding/base64"
	"strings"

	"github.com/jessemorales01/job-application-process/internal/models"
)

// gmailMessage represents the relevant fields from a Gmail API
// format=full message response.
type gmailMessage struct {
	ID      string    `json:"id"`
	Payload gmailPart `json:"payload"`
}

type gmailPart struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []gmailPart `json:"parts"`
}

// parseMessage converts a Gmail API message into a RawMessage. Returns
// false when the message carries no usable identity.
func parseMessage(msg *gmailMessage) (models.RawMessage, bool) {
	if msg.ID == "" {
		return models.RawMessage{}, false
	}

	var subject, from, date string
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			subject = h.Value
		case "From":
			from = h.Value
		case "Date":
			date = h.Value
		}
	}

	return models.RawMessage{
		ExternalID: msg.ID,
		Subject:    subject,
		Body:       extractBody(&msg.Payload),
		Sender:     senderAddress(from),
		Date:       date,
	}, true
}

// senderAddress pulls the bare address out of a "Name <addr>" header.
func senderAddress(from string) string {
	if open := strings.Index(from, "<"); open >= 0 {
		if close := strings.Index(from[open:], ">"); close > 0 {
			return strings.TrimSpace(from[open+1 : open+close])
		}
	}
	return strings.TrimSpace(from)
}

// extractBody walks the MIME tree and returns plain text. A text/plain
// part anywhere in the tree wins; otherwise the first text/html part is
// stripped down to text.
func extractBody(payload *gmailPart) string {
	if plain := findPart(payload, "text/plain"); plain != "" {
		return plain
	}
	if htmlBody := findPart(payload, "text/html"); htmlBody != "" {
		return htmlToText(htmlBody)
	}
	return ""
}

// findPart returns the decoded content of the first part with the given
// MIME type, recursing into multipart containers.
func findPart(part *gmailPart, mimeType string) string {
	if part.MimeType == mimeType || (part.MimeType == "" && len(part.Parts) == 0 && mimeType == "text/plain") {
		if text := decodeBody(part.Body.Data); text != "" {
			return text
		}
	}
	for i := range part.Parts {
		if text := findPart(&part.Parts[i], mimeType); text != "" {
			return text
		}
	}
	return ""
}

// decodeBody decodes Gmail's base64url body data, tolerating both
// padded and unpadded forms.
func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}
