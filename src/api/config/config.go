package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/stake-plus/vidcheck/src/data"
	"github.com/stake-plus/vidcheck/src/verifier"
)

type Config struct {
	Port           string
	RedisURL       string
	JWTSecret      string
	AllowedOrigins []string

	GeminiAPIKey        string
	Language            string
	UsePremiumModel     bool
	UseGroundingSearch  bool
	AnalysisTimeoutSecs int
	CacheResults        bool
	MaxCacheAgeHours    int
	StrictMode          bool
	ConfidenceThreshold int

	// Separate ceilings: verification requests are far more expensive than
	// transcript fetches.
	VerifyRateCeiling   int
	UpstreamRateCeiling int
	RateWindowSecs      int
	TranscriptTTL       int // hours
	TranscriptCache     int // max cached transcripts
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// setting reads the named value from the settings table, falling back to the
// env variable and then the default. Database values win so operators can
// retune without a restart.
func setting(db *gorm.DB, name, envKey, def string) string {
	if db != nil {
		if v := data.GetSetting(name); v != "" {
			return v
		}
	}
	return getenv(envKey, def)
}

func settingInt(db *gorm.DB, name, envKey string, def int) int {
	raw := setting(db, name, envKey, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: bad integer for %s: %q, using %d", name, raw, def)
		return def
	}
	return n
}

func settingBool(db *gorm.DB, name, envKey string, def bool) bool {
	raw := setting(db, name, envKey, strconv.FormatBool(def))
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: bad boolean for %s: %q, using %t", name, raw, def)
		return def
	}
	return b
}

// Load assembles the runtime configuration. db may be nil; everything then
// comes from the environment.
func Load(db *gorm.DB) Config {
	cfg := Config{
		Port:      getenv("PORT", "8080"),
		RedisURL:  getenv("REDIS_URL", ""),
		JWTSecret: getenv("JWT_SECRET", ""),

		GeminiAPIKey:        setting(db, "gemini_api_key", "GEMINI_API_KEY", ""),
		Language:            setting(db, "language", "LANGUAGE", "en"),
		UsePremiumModel:     settingBool(db, "use_premium_model", "USE_PREMIUM_MODEL", false),
		UseGroundingSearch:  settingBool(db, "use_grounding_search", "USE_GROUNDING_SEARCH", false),
		AnalysisTimeoutSecs: settingInt(db, "analysis_timeout_secs", "ANALYSIS_TIMEOUT_SECS", 60),
		CacheResults:        settingBool(db, "cache_results", "CACHE_RESULTS", true),
		MaxCacheAgeHours:    settingInt(db, "max_cache_age_hours", "MAX_CACHE_AGE_HOURS", 24),
		StrictMode:          settingBool(db, "strict_mode", "STRICT_MODE", false),
		ConfidenceThreshold: settingInt(db, "confidence_threshold", "CONFIDENCE_THRESHOLD", 70),

		VerifyRateCeiling:   settingInt(db, "verify_rate_ceiling", "VERIFY_RATE_CEILING", 15),
		UpstreamRateCeiling: settingInt(db, "upstream_rate_ceiling", "UPSTREAM_RATE_CEILING", 50),
		RateWindowSecs:      settingInt(db, "rate_window_secs", "RATE_WINDOW_SECS", 60),
		TranscriptTTL:       settingInt(db, "transcript_ttl_hours", "TRANSCRIPT_TTL_HOURS", 6),
		TranscriptCache:     settingInt(db, "transcript_cache_size", "TRANSCRIPT_CACHE_SIZE", 256),
	}

	if origins := getenv("ALLOWED_ORIGINS", "http://localhost:3000"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg
}

// VerifierSettings projects the config onto the verification settings
// surface. Range clamping happens inside the verifier.
func (c Config) VerifierSettings() verifier.Settings {
	return verifier.Settings{
		APIKey:              c.GeminiAPIKey,
		Language:            c.Language,
		UsePremiumModel:     c.UsePremiumModel,
		UseGroundingSearch:  c.UseGroundingSearch,
		AnalysisTimeoutSecs: c.AnalysisTimeoutSecs,
		CacheResults:        c.CacheResults,
		MaxCacheAgeHours:    c.MaxCacheAgeHours,
		StrictMode:          c.StrictMode,
		ConfidenceThreshold: c.ConfidenceThreshold,
	}
}
