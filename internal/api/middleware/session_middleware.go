package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/constants"
	"github.com/google/uuid"
)

// SessionMiddleware 匿名使用者也有購物車, 以 cookie 內的 session id 識別
// cookie 不存在或格式不對就發一個新的
func SessionMiddleware(ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = constants.SessionTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if c, err := r.Cookie(constants.SessionCookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sessionID = c.Value
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     constants.SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), constants.SessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
