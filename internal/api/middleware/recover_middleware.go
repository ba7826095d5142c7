package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/RoyceAzure/lab/bikemarket/internal/util"
	"github.com/rs/zerolog/log"
)

func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("request_id", util.GetRequestIDFromContext(r.Context())).
					Interface("panic", err).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Internal Server Error",
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
