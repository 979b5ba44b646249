package verifier

import "strings"

// ClaimStatus is the closed verdict set. Raw responses carrying any other
// value are rejected during validation, never coerced.
type ClaimStatus string

const (
	StatusTrue         ClaimStatus = "True"
	StatusMostlyTrue   ClaimStatus = "Mostly True"
	StatusPartlyTrue   ClaimStatus = "Partly True"
	StatusMisleading   ClaimStatus = "Misleading"
	StatusFalse        ClaimStatus = "False"
	StatusUnverifiable ClaimStatus = "Unverifiable"
)

// ParseStatus maps raw status text onto the enum, tolerating case and
// underscore/hyphen variants only.
func ParseStatus(raw string) (ClaimStatus, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	switch normalized {
	case "true":
		return StatusTrue, true
	case "mostly true":
		return StatusMostlyTrue, true
	case "partly true", "partially true":
		return StatusPartlyTrue, true
	case "misleading":
		return StatusMisleading, true
	case "false":
		return StatusFalse, true
	case "unverifiable":
		return StatusUnverifiable, true
	}
	return "", false
}

// statusPriority orders verdicts for tie-breaking. A confidently refuted
// claim ranks above a partially confirmed one.
var statusPriority = map[ClaimStatus]int{
	StatusTrue:         0,
	StatusFalse:        1,
	StatusMostlyTrue:   2,
	StatusMisleading:   3,
	StatusPartlyTrue:   4,
	StatusUnverifiable: 5,
}

// TrustLevel buckets a reliability score for display.
type TrustLevel string

const (
	TrustHigh    TrustLevel = "high"
	TrustMedium  TrustLevel = "medium"
	TrustLow     TrustLevel = "low"
	TrustVeryLow TrustLevel = "very_low"
)

// Claim is one scored, sourced verdict on a factual assertion.
type Claim struct {
	Text               string      `json:"text"`
	Category           string      `json:"category"`
	Status             ClaimStatus `json:"status"`
	Confidence         int         `json:"confidence"`
	Explanation        string      `json:"explanation"`
	EvidenceType       string      `json:"evidenceType"`
	VerificationMethod string      `json:"verificationMethod"`
	Sources            []string    `json:"sources"`
	Context            string      `json:"context"`
	ReliabilityScore   int         `json:"reliabilityScore"`
	TrustLevel         TrustLevel  `json:"trustLevel"`
}

// Result is the ordered claim set plus aggregate metrics for one transcript.
type Result struct {
	Claims               []Claim        `json:"claims"`
	OverallConfidence    int            `json:"overallConfidence"`
	CategoryDistribution map[string]int `json:"categoryDistribution"`
	ReliabilityTier      TrustLevel     `json:"reliabilityTier"`
	ContentCategory      string         `json:"contentCategory"`
	Model                string         `json:"model"`
	FromCache            bool           `json:"fromCache"`
}

// Settings mirror the caller-facing configuration surface. Clamped() must be
// applied before any field is used.
type Settings struct {
	APIKey              string
	Language            string
	UsePremiumModel     bool
	UseGroundingSearch  bool
	AnalysisTimeoutSecs int
	CacheResults        bool
	MaxCacheAgeHours    int
	StrictMode          bool
	ConfidenceThreshold int
}

var supportedLanguages = map[string]bool{
	"en": true, "es": true, "fr": true, "de": true, "it": true, "pt": true,
	"ru": true, "ja": true, "ko": true, "zh": true, "hi": true, "ar": true,
}

// Clamped returns a copy with every field forced into its documented range.
func (s Settings) Clamped() Settings {
	out := s
	if !supportedLanguages[out.Language] {
		out.Language = "en"
	}
	out.AnalysisTimeoutSecs = clampInt(out.AnalysisTimeoutSecs, 30, 120)
	out.MaxCacheAgeHours = clampInt(out.MaxCacheAgeHours, 1, 168)
	out.ConfidenceThreshold = clampInt(out.ConfidenceThreshold, 50, 95)
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Options carries per-call flags.
type Options struct {
	ForceRefresh bool
}
