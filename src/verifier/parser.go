package verifier

import (
	"encoding/json"
	"sort"
	"strings"
)

const (
	maxClaims          = 8
	minClaimTextLen    = 10
	minExplanationLen  = 20
	syntheticClaimConf = 30
)

// ParseClaims turns the loosely structured completion text into validated
// claims. Two phases: a lenient extraction that tolerates code fences and
// surrounding prose, then strict per-element validation that silently drops
// anything malformed. A completely unparseable payload yields one synthetic
// Unverifiable claim instead of an error; the pipeline always produces a
// structured result. The second return value marks the synthetic fallback so
// the engine can exempt it from threshold filtering.
func ParseClaims(text, category string) ([]Claim, bool) {
	payload := extractJSONArray(text)
	if payload == "" {
		return []Claim{syntheticClaim(category, "The verification service returned a response that could not be interpreted.")}, true
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &elements); err != nil {
		return []Claim{syntheticClaim(category, "The verification service returned malformed claim data.")}, true
	}

	claims := make([]Claim, 0, len(elements))
	for _, element := range elements {
		if claim, ok := validateClaim(element, category); ok {
			claims = append(claims, claim)
		}
	}

	if len(claims) == 0 {
		return []Claim{syntheticClaim(category, "No verifiable claims survived validation of the service response.")}, true
	}

	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].Confidence > claims[j].Confidence
	})
	if len(claims) > maxClaims {
		claims = claims[:maxClaims]
	}
	return claims, false
}

func syntheticClaim(category, reason string) Claim {
	return Claim{
		Text:               "The transcript could not be automatically verified.",
		Category:           category,
		Status:             StatusUnverifiable,
		Confidence:         syntheticClaimConf,
		Explanation:        reason + " Treat the content with normal skepticism until checked manually.",
		EvidenceType:       "general_knowledge",
		VerificationMethod: "automated parsing fallback",
	}
}

type rawClaim struct {
	Claim              string          `json:"claim"`
	Text               string          `json:"text"`
	Category           string          `json:"category"`
	Status             string          `json:"status"`
	Confidence         json.Number     `json:"confidence"`
	Explanation        string          `json:"explanation"`
	EvidenceType       string          `json:"evidence_type"`
	VerificationMethod string          `json:"verification_method"`
	Sources            json.RawMessage `json:"sources"`
	Context            string          `json:"context"`
}

func validateClaim(element json.RawMessage, fallbackCategory string) (Claim, bool) {
	var raw rawClaim
	if err := json.Unmarshal(element, &raw); err != nil {
		return Claim{}, false
	}

	text := strings.TrimSpace(raw.Claim)
	if text == "" {
		text = strings.TrimSpace(raw.Text)
	}
	if len(text) <= minClaimTextLen {
		return Claim{}, false
	}

	explanation := strings.TrimSpace(raw.Explanation)
	if len(explanation) <= minExplanationLen {
		return Claim{}, false
	}

	status, ok := ParseStatus(raw.Status)
	if !ok {
		return Claim{}, false
	}

	confidence, err := raw.Confidence.Float64()
	if err != nil || confidence < 0 || confidence > 100 {
		return Claim{}, false
	}

	category := strings.TrimSpace(raw.Category)
	if category == "" {
		category = fallbackCategory
	}

	return Claim{
		Text:               text,
		Category:           strings.ToLower(category),
		Status:             status,
		Confidence:         int(confidence + 0.5),
		Explanation:        explanation,
		EvidenceType:       strings.TrimSpace(strings.ToLower(raw.EvidenceType)),
		VerificationMethod: strings.TrimSpace(raw.VerificationMethod),
		Sources:            parseSources(raw.Sources),
		Context:            strings.TrimSpace(raw.Context),
	}, true
}

// parseSources accepts either a JSON array of strings or a single string.
func parseSources(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := list[:0]
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && strings.TrimSpace(single) != "" {
		return []string{strings.TrimSpace(single)}
	}
	return nil
}

// extractJSONArray strips code fences and returns the first balanced JSON
// array in text. A lone object is wrapped into a one-element array. Returns
// "" when no parseable JSON substring exists.
func extractJSONArray(text string) string {
	text = stripFences(text)

	if arr := balancedSlice(text, '[', ']'); arr != "" {
		return arr
	}
	if obj := balancedSlice(text, '{', '}'); obj != "" {
		return "[" + obj + "]"
	}
	return ""
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// balancedSlice returns the first balanced open..close region, skipping
// brackets inside string literals.
func balancedSlice(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
