package verifier

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
)

const fingerprintPrefixLen = 512

// Fingerprint derives the verification cache key from the transcript prefix
// and every setting that changes the prompt or model selection.
func Fingerprint(transcript, category string, settings Settings) string {
	prefix := transcript
	if len(prefix) > fingerprintPrefixLen {
		prefix = prefix[:fingerprintPrefixLen]
	}

	h := xxhash.NewS64(0)
	h.WriteString(prefix)
	h.WriteString("|")
	h.WriteString(settings.Language)
	h.WriteString("|")
	h.WriteString(category)
	h.WriteString(fmt.Sprintf("|%t|%t|%t", settings.UsePremiumModel, settings.UseGroundingSearch, settings.StrictMode))

	return fmt.Sprintf("%016x", h.Sum64())
}
