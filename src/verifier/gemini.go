package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

const (
	ModelPro   = "gemini-2.5-pro"
	ModelFlash = "gemini-2.5-flash"
)

// DefaultFallbackModels are tried after the primary when it is unavailable.
var DefaultFallbackModels = []string{"gemini-2.0-flash", "gemini-1.5-flash"}

// GeminiClient issues generateContent calls against the completion service.
type GeminiClient struct {
	base       string
	httpClient *http.Client
}

func NewGeminiClient(base string) *GeminiClient {
	if base == "" {
		base = defaultGeminiBase
	}
	return &GeminiClient{
		base: strings.TrimRight(base, "/"),
		// Per-call deadlines come from the request context; the transport
		// timeout is only a safety net.
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
	Tools            []geminiTool     `json:"tools,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	CandidateCount  int     `json:"candidateCount"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiTool struct {
	GoogleSearch struct{} `json:"google_search"`
}

var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate issues one generateContent call for the given model and returns
// the first candidate's text. Failures come back as *modelError with the
// upstream status code attached so the engine can drive its decision table.
func (c *GeminiClient) Generate(ctx context.Context, model, apiKey, prompt string, grounding bool) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     0.2,
			MaxOutputTokens: 8192,
			CandidateCount:  1,
			TopP:            0.95,
			TopK:            40,
		},
		SafetySettings: defaultSafetySettings,
	}
	if grounding {
		reqBody.Tools = []geminiTool{{}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &modelError{Model: model, Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.base, model, apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", &modelError{Model: model, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &modelError{Model: model, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &modelError{Model: model, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var parsed geminiResponse
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", &modelError{
			Model:      model,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("completion service status %d: %s", resp.StatusCode, msg),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &modelError{Model: model, StatusCode: resp.StatusCode, Err: fmt.Errorf("parse response: %w", err)}
	}

	// An empty 200 payload is a successful call that produced nothing; the
	// parser turns it into the synthetic unverifiable claim rather than the
	// chain burning the remaining fallback models.
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// ModelList builds the fallback chain: the settings-selected primary followed
// by the configured fallbacks, with duplicates removed.
func ModelList(settings Settings, fallbacks []string) []string {
	primary := ModelFlash
	if settings.UsePremiumModel {
		primary = ModelPro
	}
	if len(fallbacks) == 0 {
		fallbacks = DefaultFallbackModels
	}

	models := []string{primary}
	for _, m := range fallbacks {
		if m != "" && m != primary {
			models = append(models, m)
		}
	}
	return models
}
