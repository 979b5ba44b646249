package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/stake-plus/vidcheck/src/api/config"
	"github.com/stake-plus/vidcheck/src/api/webserver"
	"github.com/stake-plus/vidcheck/src/cache"
	"github.com/stake-plus/vidcheck/src/data"
	"github.com/stake-plus/vidcheck/src/extractor"
	"github.com/stake-plus/vidcheck/src/ratelimit"
	"github.com/stake-plus/vidcheck/src/verifier"
)

func main() {
	// Database is optional; without it settings come from the environment
	// and aggregate stats are not persisted.
	var db *gorm.DB
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		db = data.MustMySQL(dsn)
		if err := data.LoadSettings(db); err != nil {
			log.Printf("api: failed to load settings: %v", err)
		}
	} else {
		log.Printf("api: MYSQL_DSN not set, running without persistence")
	}

	cfg := config.Load(db)

	var shared *cache.RedisLevel
	if cfg.RedisURL != "" {
		rdb := data.MustRedis(cfg.RedisURL)
		shared = cache.NewRedisLevel(rdb, time.Duration(cfg.MaxCacheAgeHours)*time.Hour)
	}

	window := time.Duration(cfg.RateWindowSecs) * time.Second
	upstreamLimiter := ratelimit.New(cfg.UpstreamRateCeiling, window)
	verifyLimiter := ratelimit.New(cfg.VerifyRateCeiling, window)
	stop := make(chan struct{})
	upstreamLimiter.StartCleanup(5*time.Minute, stop)
	verifyLimiter.StartCleanup(5*time.Minute, stop)

	coord := extractor.New(extractor.Config{
		Cache:    cache.NewStore[string](time.Duration(cfg.TranscriptTTL)*time.Hour, cfg.TranscriptCache),
		Limiter:  upstreamLimiter,
		Language: cfg.Language,
	})

	engine := verifier.NewEngine(verifier.EngineConfig{
		Client:  verifier.NewGeminiClient(""),
		Limiter: verifyLimiter,
		Memory:  cache.NewStore[verifier.Result](time.Duration(cfg.MaxCacheAgeHours)*time.Hour, 128),
		Shared:  shared,
		OnFreshResult: func(r verifier.Result) {
			data.RecordVerification(db, len(r.Claims), verifier.AccurateClaimCount(r.Claims))
		},
	})

	router := webserver.New(cfg, coord, engine, db)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute, // verification calls can run long
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api: listening on port %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api: http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	close(stop)
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
	log.Printf("api: shut down")
}
