package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const playerResponseMarker = "ytInitialPlayerResponse"

// WatchPage scrapes the player response embedded in the public watch page.
// Slower and more brittle than the player endpoint, but it needs no API
// context at all.
type WatchPage struct {
	base       string
	httpClient *http.Client
}

func NewWatchPage(base string) *WatchPage {
	if base == "" {
		base = defaultPlatformBase
	}
	return &WatchPage{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *WatchPage) Name() string { return "watch-page" }

func (s *WatchPage) Fetch(ctx context.Context, videoID, lang string) (string, error) {
	pageURL := fmt.Sprintf("%s/watch?v=%s&hl=%s", s.base, url.QueryEscape(videoID), url.QueryEscape(lang))
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", terminalErr(s.Name(), err)
	}
	req.Header.Set("Accept-Language", lang+";q=0.9,en;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", retryableErr(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("watch page status %d", resp.StatusCode)
		return "", &StrategyError{Strategy: s.Name(), Kind: kindForStatus(resp.StatusCode), Err: err}
	}

	page, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retryableErr(s.Name(), err)
	}

	embedded, err := extractEmbeddedJSON(string(page), playerResponseMarker)
	if err != nil {
		return "", terminalErr(s.Name(), err)
	}

	var player playerResponse
	if err := json.Unmarshal([]byte(embedded), &player); err != nil {
		return "", terminalErr(s.Name(), fmt.Errorf("parse embedded player response: %w", err))
	}

	track, ok := SelectTrack(player.tracks())
	if !ok {
		return "", terminalErr(s.Name(), ErrNoCaptions)
	}

	return fetchTrackJSON3(ctx, s.httpClient, s.Name(), track.BaseURL)
}

// extractEmbeddedJSON locates `marker = {...}` in a page and returns the
// balanced JSON object that follows the assignment. String literals are
// skipped so braces inside values do not end the scan early.
func extractEmbeddedJSON(page, marker string) (string, error) {
	idx := strings.Index(page, marker)
	if idx < 0 {
		return "", fmt.Errorf("marker %q not found in page", marker)
	}

	start := strings.Index(page[idx:], "{")
	if start < 0 {
		return "", fmt.Errorf("no object after marker %q", marker)
	}
	start += idx

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(page); i++ {
		c := page[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return page[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced object after marker %q", marker)
}
