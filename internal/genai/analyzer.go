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

// Package genai wraps the generative-model fallback classifier. It is
// invoked only when the pattern pass is inconclusive. Failures never
// escape as errors: every failure mode becomes an unknown/zero-confidence
// result carrying an error tag, which callers treat as "no usable signal".
package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jessemorales01/job-application-process/internal/models"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"

	// maxBodyChars bounds the prompt size; longer bodies are truncated.
	maxBodyChars = 2000

	// requestTimeout bounds a single upstream call. A stuck call would
	// otherwise block the whole sync pass on one message.
	requestTimeout = 30 * time.Second

	// cacheTTL is how long an analysis is remembered for identical content.
	cacheTTL = 24 * time.Hour
)

// Cache stores analysis results keyed by content hash. Implementations
// may be eventually consistent; a race costs at most one redundant
// upstream call.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// Analyzer classifies messages with a chat-completion model.
type Analyzer struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	cache      Cache
}

// AnalyzerConfig holds the dependencies for an Analyzer.
type AnalyzerConfig struct {
	APIKey     string
	Model      string
	Endpoint   string       // defaults to the OpenAI chat-completions endpoint
	HTTPClient *http.Client // defaults to a client with a bounded timeout
	Cache      Cache        // nil disables caching
}

// New creates a generative analyzer. An empty API key degrades the
// analyzer to a stub that reports "not configured" instead of failing.
func New(cfg AnalyzerConfig) *Analyzer {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &Analyzer{
		apiKey:     cfg.APIKey,
		model:      model,
		endpoint:   endpoint,
		httpClient: client,
		cache:      cfg.Cache,
	}
}

// chat-completions request/response shapes, reduced to what we use.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// modelOutput is the JSON contract the prompt asks the model for.
type modelOutput struct {
	Type           string  `json:"type"`
	CompanyName    string  `json:"company_name"`
	Position       string  `json:"position"`
	TechStack      string  `json:"tech_stack"`
	SourcePlatform string  `json:"source_platform"`
	AppliedDate    string  `json:"applied_date"`
	ContactEmail   string  `json:"contact_email"`
	ContactPhone   string  `json:"contact_phone"`
	SalaryRange    string  `json:"salary_range"`
	Deadline       string  `json:"deadline"`
	Confidence     float64 `json:"confidence"`
}

// Analyze classifies one message. It always returns a usable result:
// transport, quota and parse failures come back as unknown/0-confidence
// results with Err set, never as a Go error.
func (a *Analyzer) Analyze(ctx context.Context, subject, body, sender string) models.ClassificationResult {
	key := cacheKey(subject, body, sender)

	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, key); ok {
			var result models.ClassificationResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return result
			}
			slog.Debug("discarding corrupt cached analysis", "key", key)
		}
	}

	if a.apiKey == "" {
		return errorResult("generative classifier not configured: missing API key")
	}

	content, err := a.complete(ctx, subject, body, sender)
	if err != nil {
		return errorResult(err.Error())
	}

	payload, ok := extractJSONObject(content)
	if !ok {
		return errorResult("no JSON object in model response")
	}

	var out modelOutput
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return errorResult(fmt.Sprintf("invalid JSON in model response: %v", err))
	}

	result := models.ClassificationResult{
		Category:   normalizeCategory(out.Type),
		Confidence: clamp01(out.Confidence),
		Origin:     models.OriginGenerative,
		Fields: models.Fields{
			CompanyName:    clean(out.CompanyName),
			Position:       clean(out.Position),
			TechStack:      clean(out.TechStack),
			SourcePlatform: clean(out.SourcePlatform),
			AppliedDate:    clean(out.AppliedDate),
			ContactEmail:   clean(out.ContactEmail),
			ContactPhone:   clean(out.ContactPhone),
			SalaryRange:    clean(out.SalaryRange),
			Deadline:       clean(out.Deadline),
		},
	}

	if a.cache != nil {
		if encoded, err := json.Marshal(result); err == nil {
			a.cache.Set(ctx, key, string(encoded), cacheTTL)
		}
	}

	return result
}

// complete performs the chat-completions call and returns the raw
// content of the first choice.
func (a *Analyzer) complete(ctx context.Context, subject, body, sender string) (string, error) {
	body = truncate(body, maxBodyChars)

	reqBody, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(subject, body, sender)},
		},
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("completion API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

const systemPrompt = `You are an expert at analyzing job search emails.
Extract structured data: the email type, company name, position title,
tech stack, source platform, dates, contact details and salary if present,
plus a confidence score (0.0-1.0) for the classification.
Always return valid JSON. Be precise and accurate.`

func buildPrompt(subject, body, sender string) string {
	return fmt.Sprintf(`Analyze this job search email and extract structured data.

Subject: %s
From: %s
Body: %s

Classify and extract JSON:
{
    "type": "application_confirmation|rejection|assessment|interview|interaction|other",
    "company_name": "...",
    "position": "...",
    "tech_stack": "...",
    "source_platform": "...",
    "applied_date": "YYYY-MM-DD or null",
    "contact_email": "...",
    "contact_phone": "...",
    "salary_range": "...",
    "deadline": "YYYY-MM-DD or null",
    "confidence": 0.0
}

Return only valid JSON, no additional text.`, subject, sender, body)
}

// normalizeCategory maps the model's category aliases onto the shared
// enum. Anything unrecognised is unknown.
func normalizeCategory(t string) models.Category {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "application", "application_confirmation":
		return models.CategoryApplication
	case "rejection":
		return models.CategoryRejection
	case "assessment":
		return models.CategoryAssessment
	case "interview":
		return models.CategoryInterview
	case "interaction":
		return models.CategoryInteraction
	default:
		return models.CategoryUnknown
	}
}

// extractJSONObject finds the first balanced JSON object in text that
// may wrap it in code fences or prose.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

func errorResult(reason string) models.ClassificationResult {
	return models.ClassificationResult{
		Category:   models.CategoryUnknown,
		Confidence: 0,
		Origin:     models.OriginGenerative,
		Err:        reason,
	}
}

func cacheKey(subject, body, sender string) string {
	sum := sha256.Sum256([]byte(subject + "\x00" + body + "\x00" + sender))
	return hex.EncodeToString(sum[:])
}

// clean drops the literal "null"/"n/a" strings some model responses use
// in place of JSON null.
func clean(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a":
		return ""
	}
	return s
}

// truncate caps s at n bytes, backing up to a rune boundary so the
// prompt never carries a split UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
