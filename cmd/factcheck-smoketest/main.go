package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/stake-plus/vidcheck/src/extractor"
	"github.com/stake-plus/vidcheck/src/ratelimit"
	"github.com/stake-plus/vidcheck/src/verifier"
)

var (
	videoFlag     = flag.String("video", "", "YouTube video ID to fact-check")
	textFlag      = flag.String("text", "", "Verify raw transcript text instead of a video")
	langFlag      = flag.String("lang", "en", "Transcript language")
	modeFlag      = flag.String("mode", "both", "extract|verify|both")
	premiumFlag   = flag.Bool("premium", false, "Use the premium model")
	groundingFlag = flag.Bool("grounding", false, "Enable grounded search")
	strictFlag    = flag.Bool("strict", false, "Strict verification mode")
	timeoutFlag   = flag.Int("timeout", 60, "Analysis timeout in seconds")
	thresholdFlag = flag.Int("threshold", 70, "Confidence threshold")
	maxLenFlag    = flag.Int("max-bytes", 1200, "Maximum transcript bytes to print (0=unlimited)")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	mode, err := parseMode(*modeFlag)
	if err != nil {
		log.Fatalf("invalid mode: %v", err)
	}

	transcript := strings.TrimSpace(*textFlag)
	if transcript == "" && *videoFlag == "" {
		log.Fatal("provide -video or -text")
	}

	if transcript == "" {
		transcript, err = extract(*videoFlag)
		if err != nil {
			log.Fatalf("extract ❌ %v", err)
		}
		fmt.Printf("extract ✅ %d chars\n%s\n", len(transcript), truncate(transcript, *maxLenFlag))
		if mode == modeExtract {
			return
		}
	} else if mode == modeExtract {
		log.Fatal("-mode extract requires -video")
	}

	result, err := verify(transcript)
	if err != nil {
		log.Fatalf("verify ❌ %v", err)
	}
	printResult(result)
}

func extract(videoID string) (string, error) {
	coord := extractor.New(extractor.Config{
		Limiter:  ratelimit.New(100, time.Minute),
		Language: *langFlag,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	return coord.Extract(ctx, videoID, extractor.Options{})
}

func verify(transcript string) (*verifier.Result, error) {
	engine := verifier.NewEngine(verifier.EngineConfig{
		Limiter: ratelimit.New(100, time.Minute),
	})

	settings := verifier.Settings{
		APIKey:              os.Getenv("GEMINI_API_KEY"),
		Language:            *langFlag,
		UsePremiumModel:     *premiumFlag,
		UseGroundingSearch:  *groundingFlag,
		AnalysisTimeoutSecs: *timeoutFlag,
		StrictMode:          *strictFlag,
		ConfidenceThreshold: *thresholdFlag,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	start := time.Now()
	result, err := engine.Verify(ctx, transcript, settings, verifier.Options{})
	if err != nil {
		return nil, err
	}
	fmt.Printf("verify ✅ (%.1fs) via %s\n", time.Since(start).Seconds(), result.Model)
	return result, nil
}

func printResult(result *verifier.Result) {
	fmt.Printf("category=%s overall=%d tier=%s claims=%d\n",
		result.ContentCategory, result.OverallConfidence, result.ReliabilityTier, len(result.Claims))
	for i, claim := range result.Claims {
		fmt.Printf("\n[%d] %s (%s, confidence %d, reliability %d/%s)\n",
			i+1, claim.Text, claim.Status, claim.Confidence, claim.ReliabilityScore, claim.TrustLevel)
		fmt.Printf("    %s\n", claim.Explanation)
		if len(claim.Sources) > 0 {
			fmt.Printf("    sources: %s\n", strings.Join(claim.Sources, ", "))
		}
	}
}

func parseMode(input string) (runMode, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "extract":
		return modeExtract, nil
	case "verify":
		return modeVerify, nil
	case "both":
		return modeBoth, nil
	default:
		return modeBoth, errors.New("expected extract, verify, or both")
	}
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:limit]) + "...(truncated)"
}

type runMode int

const (
	modeExtract runMode = iota
	modeVerify
	modeBoth
)
