package verifier

import "fmt"

const maxPromptTranscript = 12000

var categoryRulesets = map[string]string{
	"politics":   "Cross-check numbers against official election authorities and government records. Attribute quotes precisely; flag paraphrases presented as quotes.",
	"health":     "Prefer peer-reviewed studies and health-agency guidance over anecdotes. Flag causal claims built on correlational evidence.",
	"science":    "Check whether the cited research exists and whether the stated conclusion matches it. Distinguish single studies from scientific consensus.",
	"finance":    "Verify figures against filings, exchange data, or central-bank publications. Treat price predictions as unverifiable, not false.",
	"technology": "Check product claims against vendor documentation and independent benchmarks. Flag speculation about unreleased products.",
	"general":    "Verify each assertion against the most authoritative source available for its subject.",
}

// BuildPrompt assembles the verification request text for one transcript.
func BuildPrompt(transcript, category string, settings Settings) string {
	ruleset, ok := categoryRulesets[category]
	if !ok {
		ruleset = categoryRulesets[CategoryGeneral]
	}

	excerpt := transcript
	if len(excerpt) > maxPromptTranscript {
		excerpt = excerpt[:maxPromptTranscript] + "\n\n[Transcript truncated for analysis]"
	}

	strictness := "Include claims you can assess with reasonable confidence."
	if settings.StrictMode {
		strictness = "STRICT MODE: only include claims you can assess against concrete evidence; when in doubt, mark the claim Unverifiable rather than guessing."
	}

	return fmt.Sprintf(`You are a fact-checking analyst. Extract the significant factual claims from this video transcript and verify each one.

Content category: %s
Category guidance: %s
Transcript language: %s
%s

For every claim respond with these fields:
- "claim": the factual assertion, quoted or tightly paraphrased
- "category": one-word topic for the claim
- "status": exactly one of "True", "Mostly True", "Partly True", "Misleading", "False", "Unverifiable"
- "confidence": integer 0-100
- "explanation": why the verdict holds, naming the evidence
- "evidence_type": one of "real_time_search", "official_records", "scientific_literature", "government_data", "news_reports", "company_records", "general_knowledge"
- "verification_method": how the claim was checked
- "sources": array of source names or URLs
- "context": surrounding context from the transcript

Respond with a JSON array only. No prose before or after.

Transcript:
%s`, category, ruleset, settings.Language, strictness, excerpt)
}
