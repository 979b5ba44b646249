package extractor

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TimedText hits the legacy timedtext endpoint, which serves an XML cue list
// for videos that still expose it. Last in the chain: cheapest request, worst
// coverage.
type TimedText struct {
	base       string
	httpClient *http.Client
}

func NewTimedText(base string) *TimedText {
	if base == "" {
		base = defaultPlatformBase
	}
	return &TimedText{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *TimedText) Name() string { return "timedtext" }

type timedTextCueList struct {
	Texts []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

func (s *TimedText) Fetch(ctx context.Context, videoID, lang string) (string, error) {
	body, err := s.fetchLang(ctx, videoID, lang)
	if err == nil && len(bytes.TrimSpace(body)) == 0 && lang != "en" {
		// Some videos only publish an English legacy track.
		body, err = s.fetchLang(ctx, videoID, "en")
	}
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", terminalErr(s.Name(), ErrNoCaptions)
	}

	var cues timedTextCueList
	if err := xml.Unmarshal(body, &cues); err != nil {
		return "", terminalErr(s.Name(), fmt.Errorf("parse cue list: %w", err))
	}

	var b strings.Builder
	for _, cue := range cues.Texts {
		text := strings.TrimSpace(cue.Body)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
	if b.Len() == 0 {
		return "", terminalErr(s.Name(), ErrNoCaptions)
	}
	return b.String(), nil
}

func (s *TimedText) fetchLang(ctx context.Context, videoID, lang string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/api/timedtext?lang=%s&v=%s", s.base, url.QueryEscape(lang), url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, terminalErr(s.Name(), err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, retryableErr(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("timedtext status %d", resp.StatusCode)
		return nil, &StrategyError{Strategy: s.Name(), Kind: kindForStatus(resp.StatusCode), Err: err}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retryableErr(s.Name(), err)
	}
	return data, nil
}
