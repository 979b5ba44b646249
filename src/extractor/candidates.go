package extractor

import "strings"

// CaptionTrack describes one transcript source discovered by a strategy.
// Candidates only live for the duration of a single extraction attempt.
type CaptionTrack struct {
	BaseURL      string
	Name         string
	LanguageCode string
	Kind         string // "asr" marks an auto-speech-recognition track
}

// Score assigns the deterministic preference score used to pick between
// multiple available tracks. Higher is better.
func (t CaptionTrack) Score() int {
	score := 1

	lang := strings.ToLower(t.LanguageCode)
	name := strings.ToLower(t.Name)

	if lang == "en" || strings.HasPrefix(lang, "en-") {
		score += 4
	}
	if strings.Contains(name, "english") {
		score += 3
	}
	if t.Kind != "asr" {
		score += 2
	}
	if !strings.Contains(name, "auto") {
		score += 2
	}
	if t.Kind == "" {
		score++
	}

	return score
}

// SelectTrack returns the highest-scoring candidate. Ties go to the earliest
// discovered track.
func SelectTrack(tracks []CaptionTrack) (CaptionTrack, bool) {
	if len(tracks) == 0 {
		return CaptionTrack{}, false
	}

	best := tracks[0]
	bestScore := best.Score()
	for _, track := range tracks[1:] {
		if s := track.Score(); s > bestScore {
			best = track
			bestScore = s
		}
	}
	return best, true
}
