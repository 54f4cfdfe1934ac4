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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ClassifyConfig holds the data-driven pieces of the classifiers:
// the company-name denylist and the domain lists used to tell job
// boards and personal providers apart from real employers.
type ClassifyConfig struct {
	CompanyDenylist []string
	JobBoardDomains []string
	PersonalDomains []string
}

// Config holds all configuration for the sync service.
type Config struct {
	// Postgres / Redis
	DatabaseURL string
	RedisURL    string

	// Google OAuth (token refresh)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenURL     string

	// Generative fallback
	OpenAIAPIKey string
	OpenAIModel  string

	// Sync behaviour
	FetchBatchSize int
	FetchTimeout   time.Duration

	// Server (sync trigger + health check)
	Port int

	Classify ClassifyConfig
}

// Defaults for the classifier data lists. A detected application named
// after one of the denylist entries is noise, and a job-board sender
// domain names the platform, never the employer.
var (
	defaultCompanyDenylist = []string{
		"unknown", "unknown company", "n/a", "none",
		"congratulations", "thank you", "thanks", "hi", "dear",
		"hello", "greetings", "application", "job", "position",
		"role", "opportunity", "company", "employer",
	}

	defaultJobBoardDomains = []string{
		"indeed", "myworkday", "linkedin", "glassdoor", "ziprecruiter",
		"monster", "careerbuilder", "simplyhired", "snagajob", "dice",
		"naukri", "shine", "timesjobs", "naukrigulf", "jobstreet",
	}

	defaultPersonalDomains = []string{
		"gmail", "outlook", "yahoo", "hotmail", "icloud", "aol",
	}
)

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Google struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"google"`
	OpenAI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`
	Classify struct {
		CompanyDenylist []string `yaml:"company_denylist"`
		JobBoardDomains []string `yaml:"job_board_domains"`
		PersonalDomains []string `yaml:"personal_domains"`
	} `yaml:"classify"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings. A missing config file is
// not an error — every setting has an env var or a default.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	case os.IsNotExist(err):
		// Env-only configuration
	default:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		DatabaseURL:        firstNonEmpty(raw.Database.URL, envOrDefault("DATABASE_URL", "postgres://localhost:5432/jobtracker")),
		RedisURL:           firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		GoogleClientID:     firstNonEmpty(raw.Google.ClientID, os.Getenv("GOOGLE_OAUTH_CLIENT_ID")),
		GoogleClientSecret: firstNonEmpty(raw.Google.ClientSecret, os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET")),
		GoogleTokenURL:     envOrDefault("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		OpenAIAPIKey:       firstNonEmpty(raw.OpenAI.APIKey, os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:        firstNonEmpty(raw.OpenAI.Model, envOrDefault("OPENAI_MODEL", "gpt-3.5-turbo")),
		FetchBatchSize:     envOrDefaultInt("FETCH_BATCH_SIZE", 50),
		FetchTimeout:       envOrDefaultDuration("FETCH_TIMEOUT", 30*time.Second),
		Port:               envOrDefaultInt("PORT", 8080),
		Classify: ClassifyConfig{
			CompanyDenylist: listOrDefault(raw.Classify.CompanyDenylist, defaultCompanyDenylist),
			JobBoardDomains: listOrDefault(raw.Classify.JobBoardDomains, defaultJobBoardDomains),
			PersonalDomains: listOrDefault(raw.Classify.PersonalDomains, defaultPersonalDomains),
		},
	}

	if cfg.FetchBatchSize <= 0 {
		return nil, fmt.Errorf("FETCH_BATCH_SIZE must be positive, got %d", cfg.FetchBatchSize)
	}

	return cfg, nil
}

// DefaultClassify returns the built-in classifier data lists. Used by
// tests and by callers that run the classifiers without full config.
func DefaultClassify() ClassifyConfig {
	return ClassifyConfig{
		CompanyDenylist: defaultCompanyDenylist,
		JobBoardDomains: defaultJobBoardDomains,
		PersonalDomains: defaultPersonalDomains,
	}
}

func listOrDefault(values, fallback []string) []string {
	if len(values) > 0 {
		return values
	}
	return fallback
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
