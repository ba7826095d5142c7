package middleware

import (
	"context"
	"net/http"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/lab/bikemarket/internal/util"
	"github.com/RoyceAzure/rj/api"
	er "github.com/RoyceAzure/rj/util/rj_error"
	"github.com/rs/zerolog/log"
)

// UserSyncer 把 token 內的身分同步到本地使用者
type UserSyncer interface {
	EnsureUser(ctx context.Context, p service.Principal) (*model.User, error)
}

// 驗證ctx是否有token payload, 並確保本地有對應的使用者
func AuthMiddleware(users UserSyncer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload := util.GetTokenPayloadFromContext(r.Context())
			if payload == nil {
				api.ErrorJSON(w, int(er.UnauthenticatedCode), er.New(er.UnauthenticatedCode, "unauthenticated"), er.ErrStrMap[er.UnauthenticatedCode])
				return
			}
			_, err := users.EnsureUser(r.Context(), service.Principal{
				UserID:   payload.UserID,
				Username: payload.Username,
				Email:    payload.Email,
				IsStaff:  payload.IsStaff,
			})
			if err != nil {
				log.Error().Err(err).Uint("user_id", payload.UserID).Msg("failed to sync user")
				api.ErrorJSON(w, int(er.InternalErrorCode), err, er.ErrStrMap[er.InternalErrorCode])
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// 必須在 AuthMiddleware 之後
func StaffMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := util.GetTokenPayloadFromContext(r.Context())
		if payload == nil || !payload.IsStaff {
			api.ErrorJSON(w, int(er.UnauthorizedCode), er.New(er.UnauthorizedCode, "staff only"), er.ErrStrMap[er.UnauthorizedCode])
			return
		}
		next.ServeHTTP(w, r)
	})
}
