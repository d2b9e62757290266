package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"videoquiz-backend/internal/pipeline"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// CORS
	CORSAllowedOrigins []string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	AccessCookieName  string
	RefreshCookieName string
	CookieSameSite    http.SameSite
	AuthRateLimit     int
	AuthRateLimitSpan time.Duration

	// Gemini AI
	GeminiAPIKey             string
	GeminiModel              string
	GeminiTranscriptionModel string
	GeminiConcurrentReqs     int

	// Pipeline
	CallTimeout        time.Duration
	MaxTranscriptChars int
	QuestionCount      int
	AudioBackend       string
	YtDlpPath          string
	YtDlpUserAgent     string
	YtDlpCookieBrowser string
	TempDir            string
}

var requiredKeys = []string{"DATABASE_URL", "JWT_SECRET", "GEMINI_API_KEY"}

// Load reads an optional .env file, then environment variables and an
// optional config.yaml through viper.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("JWT_ACCESS_LIFETIME_MIN", 15)
	v.SetDefault("JWT_REFRESH_LIFETIME_DAYS", 30)
	v.SetDefault("JWT_ACCESS_COOKIE_NAME", "access_token")
	v.SetDefault("JWT_REFRESH_COOKIE_NAME", "refresh_token")
	v.SetDefault("JWT_COOKIE_SAMESITE", "Lax")
	v.SetDefault("AUTH_RATE_LIMIT_PER_MINUTE", 10)
	v.SetDefault("GEMINI_MODEL", "")
	v.SetDefault("GEMINI_TRANSCRIPTION_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_CONCURRENT_REQUESTS", 5)
	v.SetDefault("PIPELINE_CALL_TIMEOUT", pipeline.DefaultCallTimeout)
	v.SetDefault("PIPELINE_MAX_TRANSCRIPT_CHARS", pipeline.DefaultMaxTranscriptChars)
	v.SetDefault("PIPELINE_QUESTION_COUNT", pipeline.DefaultQuestionCount)
	v.SetDefault("PIPELINE_TEMP_DIR", "")
	v.SetDefault("AUDIO_BACKEND", "ytdlp")
	v.SetDefault("YTDLP_PATH", "yt-dlp")
	v.SetDefault("YTDLP_UA", pipeline.DefaultUserAgent)
	v.SetDefault("YTDLP_COOKIES_FROM_BROWSER", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required configuration not set: %s", strings.Join(missing, ", "))
	}

	sameSite, err := parseSameSite(v.GetString("JWT_COOKIE_SAMESITE"))
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(v.GetString("AUDIO_BACKEND"))
	if backend != "ytdlp" && backend != "native" {
		return nil, fmt.Errorf("AUDIO_BACKEND must be ytdlp or native, got %q", backend)
	}

	cfg := &Config{
		Port:          v.GetString("PORT"),
		Env:           v.GetString("ENV"),
		LogLevel:      v.GetString("LOG_LEVEL"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		DatabaseURL:   v.GetString("DATABASE_URL"),
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		RedisURL:      v.GetString("REDIS_URL"),

		JWTSecret:         v.GetString("JWT_SECRET"),
		AccessTokenTTL:    time.Duration(v.GetInt("JWT_ACCESS_LIFETIME_MIN")) * time.Minute,
		RefreshTokenTTL:   time.Duration(v.GetInt("JWT_REFRESH_LIFETIME_DAYS")) * 24 * time.Hour,
		AccessCookieName:  v.GetString("JWT_ACCESS_COOKIE_NAME"),
		RefreshCookieName: v.GetString("JWT_REFRESH_COOKIE_NAME"),
		CookieSameSite:    sameSite,
		AuthRateLimit:     v.GetInt("AUTH_RATE_LIMIT_PER_MINUTE"),
		AuthRateLimitSpan: time.Minute,

		GeminiAPIKey:             v.GetString("GEMINI_API_KEY"),
		GeminiModel:              strings.TrimSpace(v.GetString("GEMINI_MODEL")),
		GeminiTranscriptionModel: v.GetString("GEMINI_TRANSCRIPTION_MODEL"),
		GeminiConcurrentReqs:     v.GetInt("GEMINI_CONCURRENT_REQUESTS"),

		CallTimeout:        v.GetDuration("PIPELINE_CALL_TIMEOUT"),
		MaxTranscriptChars: v.GetInt("PIPELINE_MAX_TRANSCRIPT_CHARS"),
		QuestionCount:      v.GetInt("PIPELINE_QUESTION_COUNT"),
		AudioBackend:       backend,
		YtDlpPath:          v.GetString("YTDLP_PATH"),
		YtDlpUserAgent:     v.GetString("YTDLP_UA"),
		YtDlpCookieBrowser: v.GetString("YTDLP_COOKIES_FROM_BROWSER"),
		TempDir:            v.GetString("PIPELINE_TEMP_DIR"),
	}
	return cfg, nil
}

// IsProduction reports whether cookies should be Secure and logs JSON.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Pipeline projects the pipeline options.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		CallTimeout:        c.CallTimeout,
		MaxTranscriptChars: c.MaxTranscriptChars,
		QuestionCount:      c.QuestionCount,
		Model:              c.GeminiModel,
		Audio: pipeline.AudioOptions{
			UserAgent:          c.YtDlpUserAgent,
			CookiesFromBrowser: c.YtDlpCookieBrowser,
		},
		TempDir: c.TempDir,
	}
}

// RequestWriteTimeout bounds one quiz creation request: four calls of at most
// callTimeout each (model listing, extraction, transcription, generation)
// plus slack for rate-slot waits, upload polling and persistence.
func RequestWriteTimeout(callTimeout time.Duration) time.Duration {
	if callTimeout <= 0 {
		callTimeout = pipeline.DefaultCallTimeout
	}
	return 4*callTimeout + 2*time.Minute
}

// splitList parses a comma-separated list, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("JWT_COOKIE_SAMESITE must be Lax, Strict or None, got %q", s)
	}
}
