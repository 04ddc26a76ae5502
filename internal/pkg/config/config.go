package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ctxsearch/backend/internal/pkg/env"
)

// Settings is the read-only configuration snapshot for one process.
// Load builds it from the environment; nothing mutates it afterwards.
type Settings struct {
	AppName string
	AppEnv  string
	BaseURL string

	CORSOrigins []string

	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string

	OpenAIAPIKey         string
	StripeSecretKey      string
	StripeWebhookSecret  string
	AzureSearchEndpoint  string
	AzureSearchKey       string
	FirestoreCredentials string

	TaskWorkers    int
	TaskQueueSize  int
	EventRetention time.Duration
}

var (
	once     sync.Once
	snapshot *Settings
)

// Get returns the process-wide snapshot, loading it on first use.
func Get() *Settings {
	once.Do(func() { snapshot = Load() })
	return snapshot
}

// Load builds a fresh snapshot from the environment. Tests call it
// directly to bypass the process-wide cache.
func Load() *Settings {
	return &Settings{
		AppName: env.GetEnv("APP_NAME", "Context Search"),
		AppEnv:  env.GetEnv("APP_ENV", "prod"),
		BaseURL: strings.TrimRight(env.GetEnv("BASE_URL", "http://localhost:8080"), "/"),

		CORSOrigins: splitOrigins(env.GetEnv("CORS_ORIGINS", "*")),

		SessionSecret:      env.GetEnv("SESSION_SECRET", ""),
		GoogleClientID:     env.GetEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: env.GetEnv("GOOGLE_CLIENT_SECRET", ""),

		OpenAIAPIKey:         env.GetEnv("OPENAI_API_KEY", ""),
		StripeSecretKey:      env.GetEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		AzureSearchEndpoint:  strings.TrimRight(env.GetEnv("AZURE_SEARCH_ENDPOINT", ""), "/"),
		AzureSearchKey:       env.GetEnv("AZURE_SEARCH_KEY", ""),
		FirestoreCredentials: env.GetEnv("FIRESTORE_CREDENTIALS_JSON", ""),

		TaskWorkers:    getPositiveInt("TASK_WORKERS", 4),
		TaskQueueSize:  getPositiveInt("TASK_QUEUE_SIZE", 64),
		EventRetention: time.Duration(getPositiveInt("EVENT_RETENTION_HOURS", 24)) * time.Hour,
	}
}

// AllowAllOrigins reports whether the CORS origin list contains the
// wildcard entry.
func (s *Settings) AllowAllOrigins() bool {
	for _, o := range s.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// MaskedEnv reports which secret settings are present without exposing
// their values. Unset entries marshal as null.
func (s *Settings) MaskedEnv() map[string]*string {
	vals := map[string]string{
		"OPENAI_API_KEY":             s.OpenAIAPIKey,
		"STRIPE_SECRET_KEY":          s.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET":      s.StripeWebhookSecret,
		"GOOGLE_CLIENT_ID":           s.GoogleClientID,
		"GOOGLE_CLIENT_SECRET":       s.GoogleClientSecret,
		"SESSION_SECRET":             s.SessionSecret,
		"AZURE_SEARCH_KEY":           s.AzureSearchKey,
		"FIRESTORE_CREDENTIALS_JSON": s.FirestoreCredentials,
	}
	masked := make(map[string]*string, len(vals))
	for name, v := range vals {
		if v == "" {
			masked[name] = nil
			continue
		}
		label := fmt.Sprintf("present(len=%d)", len(v))
		masked[name] = &label
	}
	return masked
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

func getPositiveInt(key string, def int) int {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
