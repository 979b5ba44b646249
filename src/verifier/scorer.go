package verifier

import (
	"math"
	"sort"
)

// Reliability weighting: 40% raw confidence, 25% evidence tier, 20%
// explanation depth, 15% status certainty.
const (
	weightConfidence  = 0.40
	weightEvidence    = 25.0
	weightExplanation = 20.0
	weightCertainty   = 15.0

	explanationCap = 240
)

// evidenceTierWeights rank how independently checkable each evidence type is.
// Live search outranks records which outrank reporting.
var evidenceTierWeights = map[string]float64{
	"real_time_search":      1.0,
	"official_records":      0.9,
	"scientific_literature": 0.9,
	"government_data":       0.9,
	"news_reports":          0.75,
	"company_records":       0.75,
}

const defaultEvidenceWeight = 0.6

// statusCertainty weights definite verdicts above hedged ones.
var statusCertainty = map[ClaimStatus]float64{
	StatusTrue:         1.0,
	StatusFalse:        1.0,
	StatusMostlyTrue:   0.8,
	StatusMisleading:   0.7,
	StatusPartlyTrue:   0.6,
	StatusUnverifiable: 0.3,
}

// ReliabilityScore computes the composite 0-100 trust metric for one claim.
func ReliabilityScore(claim Claim) int {
	confidence := float64(clampInt(claim.Confidence, 0, 100))

	tier, ok := evidenceTierWeights[claim.EvidenceType]
	if !ok {
		tier = defaultEvidenceWeight
	}

	explanationLen := len(claim.Explanation)
	if explanationLen > explanationCap {
		explanationLen = explanationCap
	}
	quality := float64(explanationLen) / explanationCap

	certainty, ok := statusCertainty[claim.Status]
	if !ok {
		certainty = statusCertainty[StatusUnverifiable]
	}

	score := weightConfidence*confidence +
		weightEvidence*tier +
		weightExplanation*quality +
		weightCertainty*certainty

	return clampInt(int(math.Round(score)), 0, 100)
}

// TrustLevelFor buckets a reliability score.
func TrustLevelFor(score int) TrustLevel {
	switch {
	case score >= 80:
		return TrustHigh
	case score >= 60:
		return TrustMedium
	case score >= 40:
		return TrustLow
	default:
		return TrustVeryLow
	}
}

// ScoreAndOrder derives reliability fields for every claim, drops claims
// below the confidence threshold, and applies the final ordering:
// reliability desc, confidence desc, then status priority.
func ScoreAndOrder(claims []Claim, confidenceThreshold int) []Claim {
	scored := make([]Claim, 0, len(claims))
	for _, claim := range claims {
		claim.Confidence = clampInt(claim.Confidence, 0, 100)
		claim.ReliabilityScore = ReliabilityScore(claim)
		claim.TrustLevel = TrustLevelFor(claim.ReliabilityScore)
		if claim.Confidence < confidenceThreshold {
			continue
		}
		scored = append(scored, claim)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.ReliabilityScore != b.ReliabilityScore {
			return a.ReliabilityScore > b.ReliabilityScore
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return statusPriority[a.Status] < statusPriority[b.Status]
	})

	return scored
}

// Aggregate computes the result-level metrics from an ordered claim set.
func Aggregate(claims []Claim) (overallConfidence int, distribution map[string]int, tier TrustLevel) {
	distribution = make(map[string]int)
	if len(claims) == 0 {
		return 0, distribution, TrustVeryLow
	}

	confidenceSum := 0
	reliabilitySum := 0
	for _, claim := range claims {
		confidenceSum += claim.Confidence
		reliabilitySum += claim.ReliabilityScore
		distribution[claim.Category]++
	}

	overallConfidence = int(math.Round(float64(confidenceSum) / float64(len(claims))))
	tier = TrustLevelFor(int(math.Round(float64(reliabilitySum) / float64(len(claims)))))
	return overallConfidence, distribution, tier
}

// AccurateClaimCount reports claims whose verdict affirms the assertion;
// feeds the aggregate statistics collaborator.
func AccurateClaimCount(claims []Claim) int {
	count := 0
	for _, claim := range claims {
		if claim.Status == StatusTrue || claim.Status == StatusMostlyTrue {
			count++
		}
	}
	return count
}
