package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the agent runtime, loaded from
// environment variables per SPEC_FULL §6.1.
type Config struct {
	HTTPAddr string

	Drive     DriveConfig
	OpenAI    OpenAIConfig
	Vector    VectorConfig
	Email     EmailConfig
	Sync      SyncConfig
	Search    SearchConfig
	Telemetry TelemetryConfig
}

type DriveConfig struct {
	FolderID        string
	RootName        string
	CredentialsPath string
}

type OpenAIConfig struct {
	APIKey     string
	ChatModel  string
	EmbedModel string
}

type VectorConfig struct {
	Driver     string
	URL        string
	Collection string
}

type EmailConfig struct {
	APIKey      string
	FromAddress string
}

type SyncConfig struct {
	CachePath    string
	CronSchedule string
	MaxFolders   int
}

type SearchConfig struct {
	// DistanceCutoff is nil when unset ("no cutoff"), resolving the spec's
	// open question about maxDistance/keyword default interplay.
	DistanceCutoff *float64
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	cfg := &Config{
		HTTPAddr: envStr("HTTP_ADDR", ":8080"),
		Drive: DriveConfig{
			FolderID:        envStr("GOOGLE_DRIVE_FOLDER_ID", ""),
			RootName:        envStr("GOOGLE_DRIVE_FOLDER_ROOT_NAME", "Drive"),
			CredentialsPath: envStr("GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:     envStr("OPENAI_API_KEY", ""),
			ChatModel:  envStr("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			EmbedModel: envStr("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		},
		Vector: VectorConfig{
			Driver:     envStr("VECTOR_STORE_DRIVER", "embedded"),
			URL:        envStr("VECTOR_STORE_URL", ""),
			Collection: envStr("VECTOR_STORE_COLLECTION", "documents"),
		},
		Email: EmailConfig{
			APIKey:      envStr("SENDGRID_API_KEY", ""),
			FromAddress: envStr("EMAIL_FROM_ADDRESS", ""),
		},
		Sync: SyncConfig{
			CachePath:    envStr("SYNC_CACHE_PATH", "./data/synccache.json"),
			CronSchedule: envStr("SYNC_CRON_SCHEDULE", "@every 15m"),
			MaxFolders:   envInt("SYNC_MAX_FOLDERS", 10_000),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "driveagent"),
		},
	}

	if v, ok := envFloatOK("SEARCH_DISTANCE_CUTOFF"); ok {
		cfg.Search.DistanceCutoff = &v
	}

	return cfg
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOK(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
