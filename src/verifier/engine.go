package verifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/stake-plus/vidcheck/src/cache"
	"github.com/stake-plus/vidcheck/src/extractor"
	"github.com/stake-plus/vidcheck/src/ratelimit"
)

const callerRateKey = "verify"

type EngineConfig struct {
	Client         *GeminiClient
	Limiter        *ratelimit.Limiter
	Memory         *cache.Store[Result]
	Shared         *cache.RedisLevel // optional, nil-safe
	FallbackModels []string
	// OnFreshResult fires after every non-cached verification; the stats
	// collaborator hangs off this.
	OnFreshResult func(Result)
}

// Engine composes classification, caching, the model fallback loop, parsing
// and scoring into the verify operation.
type Engine struct {
	client    *GeminiClient
	limiter   *ratelimit.Limiter
	memory    *cache.Store[Result]
	shared    *cache.RedisLevel
	fallbacks []string
	onFresh   func(Result)
}

func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		client:    cfg.Client,
		limiter:   cfg.Limiter,
		memory:    cfg.Memory,
		shared:    cfg.Shared,
		fallbacks: cfg.FallbackModels,
		onFresh:   cfg.OnFreshResult,
	}
	if e.client == nil {
		e.client = NewGeminiClient("")
	}
	if e.memory == nil {
		e.memory = cache.NewStore[Result](time.Hour, 128)
	}
	return e
}

// Verify runs the full pipeline for one transcript. The caller always gets
// either a structured result or one categorized error.
func (e *Engine) Verify(ctx context.Context, transcript string, settings Settings, opts Options) (*Result, error) {
	settings = settings.Clamped()

	if strings.TrimSpace(settings.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if len(transcript) < extractor.MinTranscriptLength {
		return nil, &ValidationError{Reason: fmt.Sprintf("transcript too short to verify (%d chars, need %d)", len(transcript), extractor.MinTranscriptLength)}
	}

	if e.limiter != nil && !e.limiter.Allow(callerRateKey) {
		return nil, &RateLimitedError{RetryAfter: e.limiter.RetryAfter(callerRateKey)}
	}

	category := Classify(transcript)
	key := Fingerprint(transcript, category, settings)

	if settings.CacheResults && !opts.ForceRefresh {
		if cached, ok := e.memory.Get(key); ok {
			cached.FromCache = true
			return &cached, nil
		}
		var shared Result
		if e.shared.Get(ctx, key, &shared) {
			shared.FromCache = true
			e.memory.Set(key, shared)
			return &shared, nil
		}
	}

	prompt := BuildPrompt(transcript, category, settings)
	models := ModelList(settings, e.fallbacks)

	deadline := time.Duration(settings.AnalysisTimeoutSecs) * time.Second
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	start := time.Now()

	text, usedModel, err := e.runModelChain(callCtx, models, settings, prompt, start)
	if err != nil {
		return nil, err
	}

	claims, parseFailed := ParseClaims(text, category)
	threshold := settings.ConfidenceThreshold
	if parseFailed {
		// The synthetic fallback claim must reach the caller; a parse
		// failure is never surfaced as an empty or hard-failed result.
		threshold = 0
	}
	ordered := ScoreAndOrder(claims, threshold)
	overall, distribution, tier := Aggregate(ordered)

	result := Result{
		Claims:               ordered,
		OverallConfidence:    overall,
		CategoryDistribution: distribution,
		ReliabilityTier:      tier,
		ContentCategory:      category,
		Model:                usedModel,
	}

	if settings.CacheResults {
		e.memory.SetTTL(time.Duration(settings.MaxCacheAgeHours) * time.Hour)
		e.memory.Set(key, result)
		e.shared.Set(ctx, key, result)
	}

	if e.onFresh != nil {
		e.onFresh(result)
	}

	log.Printf("verifier: %d claims for %s content via %s (%.1fs)",
		len(ordered), category, usedModel, time.Since(start).Seconds())
	return &result, nil
}

// runModelChain walks the fallback list applying the status decision table:
// auth and quota failures abort the chain, 400/404 advance, everything else
// is recorded and advanced past, timeout is terminal for the whole call.
func (e *Engine) runModelChain(ctx context.Context, models []string, settings Settings, prompt string, start time.Time) (string, string, error) {
	var lastErr error

	for _, model := range models {
		text, err := e.client.Generate(ctx, model, settings.APIKey, prompt, settings.UseGroundingSearch)
		if err == nil {
			return text, model, nil
		}

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", "", &TimeoutError{Elapsed: time.Since(start)}
		}

		var me *modelError
		if errors.As(err, &me) {
			switch me.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return "", "", &AuthError{StatusCode: me.StatusCode}
			case http.StatusTooManyRequests:
				return "", "", &QuotaError{StatusCode: me.StatusCode}
			}
		}

		log.Printf("verifier: model %s failed, advancing: %v", model, err)
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("all models failed")
	}
	return "", "", fmt.Errorf("verification failed: %w", lastErr)
}

// Invalidate drops any cached result derived from the given fingerprint key.
func (e *Engine) Invalidate(ctx context.Context, key string) {
	e.memory.Delete(key)
	e.shared.Delete(ctx, key)
}

// InvalidateAll clears both cache levels.
func (e *Engine) InvalidateAll(ctx context.Context) {
	e.memory.Clear()
	e.shared.Clear(ctx)
}
