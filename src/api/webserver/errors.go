package webserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/vidcheck/src/extractor"
	"github.com/stake-plus/vidcheck/src/verifier"
)

// verifyErrorStatus maps the verification error taxonomy onto HTTP statuses.
// Upstream auth and quota problems are the server's fault from the caller's
// perspective, not theirs.
func verifyErrorStatus(err error) (int, gin.H) {
	var (
		validationErr *verifier.ValidationError
		rateErr       *verifier.RateLimitedError
		authErr       *verifier.AuthError
		quotaErr      *verifier.QuotaError
		timeoutErr    *verifier.TimeoutError
	)

	switch {
	case errors.Is(err, verifier.ErrNoAPIKey):
		return http.StatusInternalServerError, gin.H{"err": "verification service not configured"}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, gin.H{"err": validationErr.Reason}
	case errors.As(err, &rateErr):
		secs := int(rateErr.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		return http.StatusTooManyRequests, gin.H{"err": "rate limited", "retryAfterSecs": secs}
	case errors.As(err, &authErr):
		return http.StatusBadGateway, gin.H{"err": "upstream rejected credentials"}
	case errors.As(err, &quotaErr):
		return http.StatusServiceUnavailable, gin.H{"err": "upstream quota exhausted, try again later"}
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, gin.H{"err": timeoutErr.Error()}
	}
	return http.StatusInternalServerError, gin.H{"err": "verification failed"}
}

func extractErrorStatus(err error) (int, gin.H) {
	var exhausted *extractor.ExhaustedError
	if errors.As(err, &exhausted) {
		if errors.Is(err, extractor.ErrNoCaptions) {
			return http.StatusNotFound, gin.H{"err": "no captions available for this video"}
		}
		return http.StatusBadGateway, gin.H{"err": "transcript extraction failed on every source"}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout, gin.H{"err": "transcript extraction timed out"}
	}
	return http.StatusInternalServerError, gin.H{"err": "transcript extraction failed"}
}
