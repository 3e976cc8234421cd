package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/speciesdash/speciesdash/internal/api/models"
)

// RateLimitWindow is the window RateLimitByIP counts requests in.
const RateLimitWindow = time.Minute

// RateLimitByIP limits each client IP to requestsPerMinute requests.
// A non-positive limit disables limiting.
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitExceededHandler),
	)
}

// rateLimitExceededHandler writes an RFC7807 Problem response when rate limit is exceeded.
func rateLimitExceededHandler(w http.ResponseWriter, r *http.Request) {
	// httprate does not expose the reset time; retry after a full window.
	w.Header().Set("Retry-After", strconv.Itoa(int(RateLimitWindow.Seconds())))

	models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.").
		WithInstance(r.URL.Path).
		Write(w)
}
