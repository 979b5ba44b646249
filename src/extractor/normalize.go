package extractor

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MinTranscriptLength is the shortest transcript considered usable. Anything
// below this is treated as an extraction failure, not a success.
const MinTranscriptLength = 50

var (
	stripPolicy = bluemonday.StrictPolicy()

	// Bracketed audio cues like [Music], [Applause], [ __ ].
	bracketCueRe = regexp.MustCompile(`\[[^\]]{0,80}\]`)

	zeroWidthReplacer = strings.NewReplacer(
		"\u200b", "",
		"\u200c", "",
		"\u200d", "",
		"\ufeff", "",
	)
)

// Normalize strips platform markup from raw caption text and collapses it to
// a single whitespace-normalized string.
func Normalize(raw string) string {
	s := stripPolicy.Sanitize(raw)
	s = html.UnescapeString(s)
	s = zeroWidthReplacer.Replace(s)
	s = bracketCueRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Usable reports whether a normalized transcript is long enough to act on.
func Usable(transcript string) bool {
	return len(transcript) >= MinTranscriptLength
}
