package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = ":8080"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultSTTModel      = "whisper-1"
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultSoundModelDir = "./models/aed"
	defaultDBPath        = "./silversense.db"
	defaultRetentionDays = 30
	minRetentionDays     = 1
	maxRetentionDays     = 365
	defaultLanguage      = "ko"
)

// Narrator providers.
const (
	NarratorOpenAI = "openai"
	NarratorGemini = "gemini"
	NarratorNone   = "none"
)

// Store backends.
const (
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
	StoreNone      = "none"
)

type Config struct {
	HTTPPort string

	OpenAIKey          string
	OpenAIModel        string
	TranscriptionModel string
	GeminiKey          string
	GeminiModel        string
	NarratorProvider   string

	IntentRulesPath string
	SoundModelDir   string
	SoundModelURL   string

	StoreBackend  string
	DBPath        string
	RetentionDays int

	// Sentiment enrichment is on whenever language credentials are set.
	SentimentEnabled bool
	FusionLLMAudit   bool
	Language         string
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg := Config{
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", defaultOpenAIModel),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", defaultSTTModel),
		GeminiKey:          firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:        getEnv("GEMINI_MODEL", defaultGeminiModel),
		NarratorProvider:   strings.ToLower(getEnv("NARRATOR_PROVIDER", NarratorOpenAI)),
		IntentRulesPath:    strings.TrimSpace(os.Getenv("INTENT_RULES_PATH")),
		SoundModelDir:      getEnv("SOUND_MODEL_DIR", defaultSoundModelDir),
		SoundModelURL:      strings.TrimRight(os.Getenv("SOUND_MODEL_URL"), "/"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreSQLite)),
		DBPath:             getEnv("DB_PATH", defaultDBPath),
		RetentionDays:      defaultRetentionDays,
		SentimentEnabled:   strings.TrimSpace(os.Getenv("NATURAL_LANGUAGE_CREDENTIALS")) != "",
		FusionLLMAudit:     parseBoolEnv("FUSION_LLM_AUDIT"),
		Language:           getEnv("LANGUAGE", defaultLanguage),
	}

	cfg.HTTPPort = getEnv("PORT", defaultPort)
	if !strings.HasPrefix(cfg.HTTPPort, ":") {
		cfg.HTTPPort = ":" + cfg.HTTPPort
	}

	if v, ok, err := parseIntEnv("RETENTION_DAYS"); err != nil {
		log.Printf("invalid RETENTION_DAYS: %v (using default %d)", err, defaultRetentionDays)
	} else if ok {
		cfg.RetentionDays = clampInt(v, minRetentionDays, maxRetentionDays)
		if cfg.RetentionDays != v {
			log.Printf("RETENTION_DAYS clamped to %d (was %d)", cfg.RetentionDays, v)
		}
	}

	return cfg, validateConfig(cfg)
}

func validateConfig(cfg Config) error {
	switch cfg.NarratorProvider {
	case NarratorOpenAI, NarratorGemini, NarratorNone:
	default:
		return fmt.Errorf("unknown NARRATOR_PROVIDER %q", cfg.NarratorProvider)
	}
	switch cfg.StoreBackend {
	case StoreSQLite, StoreFirestore, StoreNone:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == StoreSQLite && strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("DB_PATH is required for the sqlite store")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
