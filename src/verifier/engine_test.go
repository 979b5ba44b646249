package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stake-plus/vidcheck/src/cache"
	"github.com/stake-plus/vidcheck/src/ratelimit"
)

const testTranscript = "The senate vote on the new legislation follows weeks of campaign pressure, " +
	"and polling data suggests the president's approval rating is slipping before the election. " +
	"The unemployment rate fell to 3.9 percent in March according to the latest jobs report."

const claimPayload = `[
  {
    "claim": "The unemployment rate fell to 3.9 percent in March.",
    "category": "economy",
    "status": "True",
    "confidence": 85,
    "explanation": "` + "Bureau of Labor Statistics data for March confirms the 3.9 percent figure exactly as stated in the transcript." + `",
    "evidence_type": "government_data",
    "verification_method": "checked official statistics release",
    "sources": ["bls.gov"]
  }
]`

func geminiBody(text string) string {
	wrapped, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(wrapped)
}

func testSettings() Settings {
	return Settings{
		APIKey:              "test-key",
		Language:            "en",
		AnalysisTimeoutSecs: 60,
		CacheResults:        true,
		MaxCacheAgeHours:    24,
		ConfidenceThreshold: 70,
	}
}

func newTestEngine(base string) *Engine {
	return NewEngine(EngineConfig{
		Client:         NewGeminiClient(base),
		Limiter:        ratelimit.New(100, time.Minute),
		Memory:         cache.NewStore[Result](time.Hour, 16),
		FallbackModels: []string{"fallback-model"},
	})
}

func TestVerifySuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !strings.Contains(r.URL.Path, ModelFlash) {
			t.Errorf("expected primary model in path, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key, got %q", r.URL.Query().Get("key"))
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Tools) != 0 {
			t.Error("grounding tool attached without the setting enabled")
		}
		w.Write([]byte(geminiBody(claimPayload)))
	}))
	defer server.Close()

	engine := newTestEngine(server.URL)
	result, err := engine.Verify(context.Background(), testTranscript, testSettings(), Options{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if result.Model != ModelFlash {
		t.Errorf("model = %q, want %q", result.Model, ModelFlash)
	}
	if result.ContentCategory != "politics" {
		t.Errorf("category = %q, want politics", result.ContentCategory)
	}
	if result.FromCache {
		t.Error("fresh result flagged as cached")
	}
	if len(result.Claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(result.Claims))
	}
	claim := result.Claims[0]
	if claim.Status != StatusTrue || claim.Confidence != 85 {
		t.Errorf("claim = %s/%d, want True/85", claim.Status, claim.Confidence)
	}
	// 0.40*85 + 25*0.9 + 20*(110/240) + 15*1.0 rounds to 81.
	if claim.ReliabilityScore != 81 || claim.TrustLevel != TrustHigh {
		t.Errorf("derived fields wrong: score=%d trust=%s", claim.ReliabilityScore, claim.TrustLevel)
	}
	if result.OverallConfidence != 85 {
		t.Errorf("overall confidence = %d, want 85", result.OverallConfidence)
	}
}

func TestVerifyModelFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ModelFlash) {
			http.Error(w, `{"error":{"code":404,"message":"model not found"}}`, http.StatusNotFound)
			return
		}
		w.Write([]byte(geminiBody(claimPayload)))
	}))
	defer server.Close()

	engine := newTestEngine(server.URL)
	result, err := engine.Verify(context.Background(), testTranscript, testSettings(), Options{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Model != "fallback-model" {
		t.Errorf("model = %q, want fallback-model", result.Model)
	}
}

func TestVerifyAuthAborts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":{"code":403,"message":"key invalid"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	engine := newTestEngine(server.URL)
	_, err := engine.Verify(context.Background(), testTranscript, testSettings(), Options{})

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("auth failure must not try fallback models, saw %d calls", n)
	}
}

func TestVerifyQuotaAborts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":{"code":429,"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	engine := newTestEngine(server.URL)
	_, err := engine.Verify(context.Background(), testTranscript, testSettings(), Options{})

	var quotaErr *QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected QuotaError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("quota failure must not try fallback models, saw %d calls", n)
	}
}

func TestVerifyAllModelsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"internal"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	engine := newTestEngine(server.URL)
	_, err := engine.Verify(context.Background(), testTranscript, testSettings(), Options{})
	if err == nil {
		t.Fatal("expected error when every model fails")
	}
	var me *modelError
	if !errors.As(err, &me) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
}

func TestVerifyCacheHit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(geminiBody(claimPayload)))
	}))
	defer server.Close()

	engine := newTestEngine(server.URL)
	settings := testSettings()

	first, err := engine.Verify(context.Background(), testTranscript, settings, Options{})
	if err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	second, err := engine.Verify(context.Background(), testTranscript, settings, Options{})
	if err != nil {
		t.Fatalf("second Verify: %v", err)
	}

	if first.FromCache || !second.FromCache {
		t.Errorf("cache flags wrong: first=%v second=%v", first.FromCache, second.FromCache)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected a single upstream call, saw %d", n)
	}
	if len(second.Claims) != len(first.Claims) {
		t.Errorf("cached result diverged: %d vs %d claims", len(second.Claims), len(first.Claims))
	}
}

func TestVerifyForceRefresh(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(geminiBody(claimPayload)))
	}))
	defer server.Close()

	engine := newTestEngine(server.URL)
	settings := testSettings()

	if _, err := engine.Verify(context.Background(), testTranscript, settings, Options{}); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	result, err := engine.Verify(context.Background(), testTranscript, settings, Options{ForceRefresh: true})
	if err != nil {
		t.Fatalf("refresh Verify: %v", err)
	}
	if result.FromCache {
		t.Error("forced refresh returned a cached result")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected 2 upstream calls, saw %d", n)
	}
}

func TestVerifyEmptyPayloadYieldsSyntheticClaim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	engine := newTestEngine(server.URL)
	result, err := engine.Verify(context.Background(), testTranscript, testSettings(), Options{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(result.Claims) != 1 {
		t.Fatalf("expected exactly one synthetic claim, got %d", len(result.Claims))
	}
	claim := result.Claims[0]
	if claim.Status != StatusUnverifiable {
		t.Errorf("status = %s, want Unverifiable", claim.Status)
	}
	if claim.Confidence != syntheticClaimConf {
		t.Errorf("confidence = %d, want %d", claim.Confidence, syntheticClaimConf)
	}
}

func TestVerifyGroundingTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Tools) != 1 {
			t.Errorf("expected grounding tool, got %d tools", len(req.Tools))
		}
		w.Write([]byte(geminiBody(claimPayload)))
	}))
	defer server.Close()

	engine := newTestEngine(server.URL)
	settings := testSettings()
	settings.UseGroundingSearch = true
	if _, err := engine.Verify(context.Background(), testTranscript, settings, Options{}); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(geminiBody(claimPayload)))
	}))
	defer server.Close()
	defer close(release)

	engine := newTestEngine(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := engine.Verify(ctx, testTranscript, testSettings(), Options{})

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Elapsed <= 0 {
		t.Errorf("elapsed not recorded: %v", timeoutErr.Elapsed)
	}
}

func TestVerifyInputErrors(t *testing.T) {
	engine := newTestEngine("http://127.0.0.1:0")

	settings := testSettings()
	settings.APIKey = "   "
	if _, err := engine.Verify(context.Background(), testTranscript, settings, Options{}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("blank key: got %v, want ErrNoAPIKey", err)
	}

	var vErr *ValidationError
	if _, err := engine.Verify(context.Background(), "too short", testSettings(), Options{}); !errors.As(err, &vErr) {
		t.Errorf("short transcript: got %v, want ValidationError", err)
	}
}

func TestVerifyRateLimited(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	if !limiter.Allow(callerRateKey) {
		t.Fatal("setup: first allowance should pass")
	}

	engine := NewEngine(EngineConfig{
		Client:  NewGeminiClient("http://127.0.0.1:0"),
		Limiter: limiter,
		Memory:  cache.NewStore[Result](time.Hour, 16),
	})

	_, err := engine.Verify(context.Background(), testTranscript, testSettings(), Options{})
	var rlErr *RateLimitedError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rlErr.RetryAfter <= 0 {
		t.Errorf("RetryAfter not populated: %v", rlErr.RetryAfter)
	}
}

func TestVerifyFreshResultHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiBody(claimPayload)))
	}))
	defer server.Close()

	var hookCalls int32
	engine := NewEngine(EngineConfig{
		Client:  NewGeminiClient(server.URL),
		Limiter: ratelimit.New(100, time.Minute),
		Memory:  cache.NewStore[Result](time.Hour, 16),
		OnFreshResult: func(Result) {
			atomic.AddInt32(&hookCalls, 1)
		},
	})

	settings := testSettings()
	if _, err := engine.Verify(context.Background(), testTranscript, settings, Options{}); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if _, err := engine.Verify(context.Background(), testTranscript, settings, Options{}); err != nil {
		t.Fatalf("second Verify: %v", err)
	}
	if n := atomic.LoadInt32(&hookCalls); n != 1 {
		t.Errorf("hook should fire only for fresh results, fired %d times", n)
	}
}
