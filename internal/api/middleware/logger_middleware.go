package middleware

import (
	"net/http"
	"os"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/util"
	"github.com/rs/zerolog"
)

type StatusRecoder struct {
	http.ResponseWriter
	status int
}

func (w *StatusRecoder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecoder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func getUserID(r *http.Request) uint {
	payload := util.GetTokenPayloadFromContext(r.Context())
	if payload == nil {
		return 0
	}
	return payload.UserID
}

// 記錄request 請求, panic 交給 RecoverMiddleware
func LoggerMiddleware(logger *zerolog.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		temp := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &temp
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recoder := &StatusRecoder{
				ResponseWriter: w,
			}
			next.ServeHTTP(recoder, r)

			event := logger.Info()
			if recoder.Status() >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("request_id", util.GetRequestIDFromContext(r.Context())).
				Uint("user_id", getUserID(r)).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Int("status", recoder.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
