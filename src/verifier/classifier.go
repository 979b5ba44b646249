package verifier

import "strings"

// CategoryGeneral is the fallback when no topic clears the significance
// threshold.
const CategoryGeneral = "general"

const (
	keywordPoints   = 2
	indicatorPoints = 3
	topicThreshold  = 5
)

// topicTable holds the keyword and contextual-indicator vocabulary for one
// content category. Keywords are cheap surface matches; indicators are longer
// phrases that only appear in genuinely on-topic speech.
type topicTable struct {
	name       string
	keywords   []string
	indicators []string
}

var topicTables = []topicTable{
	{
		name: "politics",
		keywords: []string{
			"election", "vote", "senate", "congress", "president", "policy",
			"government", "campaign", "legislation", "democrat", "republican",
			"parliament", "ballot",
		},
		indicators: []string{
			"polling data", "executive order", "approval rating",
			"electoral college", "voter turnout", "bipartisan",
		},
	},
	{
		name: "health",
		keywords: []string{
			"vaccine", "doctor", "disease", "treatment", "symptom", "cancer",
			"diet", "medicine", "virus", "immune", "therapy", "clinical",
		},
		indicators: []string{
			"clinical trial", "peer reviewed study", "side effects",
			"medical consensus", "placebo controlled", "fda approved",
		},
	},
	{
		name: "science",
		keywords: []string{
			"research", "study", "experiment", "physics", "chemistry",
			"biology", "climate", "evolution", "quantum", "species", "theory",
		},
		indicators: []string{
			"published in nature", "scientific consensus", "control group",
			"statistically significant", "carbon emissions", "peer review",
		},
	},
	{
		name: "finance",
		keywords: []string{
			"stock", "market", "invest", "inflation", "economy", "interest",
			"crypto", "bitcoin", "dividend", "revenue", "profit", "recession",
		},
		indicators: []string{
			"federal reserve", "quarterly earnings", "market capitalization",
			"interest rate", "annual return", "price target",
		},
	},
	{
		name: "technology",
		keywords: []string{
			"software", "hardware", "internet", "algorithm", "startup",
			"smartphone", "computer", "data", "cloud", "robot", "chip",
		},
		indicators: []string{
			"artificial intelligence", "machine learning", "open source",
			"operating system", "data breach", "neural network",
		},
	},
}

// Classify scores the transcript against every topic table and returns the
// winning category, or "general" when nothing clears the threshold.
func Classify(transcript string) string {
	text := strings.ToLower(transcript)

	bestTopic := CategoryGeneral
	bestScore := 0
	for _, table := range topicTables {
		score := 0
		for _, kw := range table.keywords {
			if strings.Contains(text, kw) {
				score += keywordPoints
			}
		}
		for _, ind := range table.indicators {
			if strings.Contains(text, ind) {
				score += indicatorPoints
			}
		}
		if score > bestScore {
			bestScore = score
			bestTopic = table.name
		}
	}

	if bestScore <= topicThreshold {
		return CategoryGeneral
	}
	return bestTopic
}
