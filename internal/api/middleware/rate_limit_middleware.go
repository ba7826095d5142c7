package middleware

import (
	"net"
	"net/http"

	"github.com/RoyceAzure/lab/bikemarket/internal/infra/limiter"
	"github.com/rs/zerolog/log"
)

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// NewRateLimitMiddleware 以 client ip 限流, 需放在 chi RealIP 之後
// limiter 本身出錯時放行
func NewRateLimitMiddleware(l limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				log.Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
