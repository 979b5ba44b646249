package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TranscriptPanel drives the hidden get_transcript endpoint that backs the
// "Show transcript" UI panel. It needs no caption track URL, which makes it a
// useful fallback when track enumeration is gated.
type TranscriptPanel struct {
	base       string
	httpClient *http.Client
}

func NewTranscriptPanel(base string) *TranscriptPanel {
	if base == "" {
		base = defaultPlatformBase
	}
	return &TranscriptPanel{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *TranscriptPanel) Name() string { return "transcript-panel" }

type transcriptResponse struct {
	Actions []struct {
		UpdateEngagementPanelAction struct {
			Content struct {
				TranscriptRenderer struct {
					Content struct {
						TranscriptSearchPanelRenderer struct {
							Body struct {
								TranscriptSegmentListRenderer struct {
									InitialSegments []transcriptSegment `json:"initialSegments"`
								} `json:"transcriptSegmentListRenderer"`
							} `json:"body"`
						} `json:"transcriptSearchPanelRenderer"`
					} `json:"content"`
				} `json:"transcriptRenderer"`
			} `json:"content"`
		} `json:"updateEngagementPanelAction"`
	} `json:"actions"`
}

type transcriptSegment struct {
	TranscriptSegmentRenderer struct {
		Snippet struct {
			Runs []struct {
				Text string `json:"text"`
			} `json:"runs"`
		} `json:"snippet"`
	} `json:"transcriptSegmentRenderer"`
}

func (s *TranscriptPanel) Fetch(ctx context.Context, videoID, lang string) (string, error) {
	payload := map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    webClient.Name,
				"clientVersion": webClient.Version,
				"hl":            lang,
			},
		},
		"params": transcriptParams(videoID),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", terminalErr(s.Name(), fmt.Errorf("marshal transcript request: %w", err))
	}

	url := s.base + "/youtubei/v1/get_transcript?key=" + innerTubeKey
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", terminalErr(s.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", retryableErr(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("get_transcript status %d", resp.StatusCode)
		return "", &StrategyError{Strategy: s.Name(), Kind: kindForStatus(resp.StatusCode), Err: err}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retryableErr(s.Name(), err)
	}

	var parsed transcriptResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", terminalErr(s.Name(), fmt.Errorf("parse transcript response: %w", err))
	}

	var b strings.Builder
	for _, action := range parsed.Actions {
		segments := action.UpdateEngagementPanelAction.Content.TranscriptRenderer.
			Content.TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segments {
			for _, run := range seg.TranscriptSegmentRenderer.Snippet.Runs {
				if run.Text == "" {
					continue
				}
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(run.Text)
			}
		}
	}

	if b.Len() == 0 {
		return "", terminalErr(s.Name(), ErrNoCaptions)
	}
	return b.String(), nil
}

// transcriptParams builds the serialized request token the panel endpoint
// expects: a protobuf message whose field 1 is the video id.
func transcriptParams(videoID string) string {
	var buf bytes.Buffer
	buf.WriteByte(0x0a) // field 1, wire type 2
	buf.WriteByte(byte(len(videoID)))
	buf.WriteString(videoID)
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
