package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/constants"
	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/limiter"
	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/lab/bikemarket/internal/util"
	"github.com/RoyceAzure/lab/bikemarket/internal/util/token"
	er "github.com/RoyceAzure/rj/util/rj_error"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	synced []service.Principal
	err    error
}

func (f *fakeSyncer) EnsureUser(_ context.Context, p service.Principal) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.synced = append(f.synced, p)
	return &model.User{ID: p.UserID, Username: p.Username, IsStaff: p.IsStaff}, nil
}

func newMaker(t *testing.T) *token.JWTMaker {
	m, err := token.NewJWTMaker("0123456789abcdef0123456789abcdef", "")
	require.NoError(t, err)
	return m
}

func bearer(t *testing.T, m *token.JWTMaker, id uint, staff bool) string {
	signed, _, err := m.CreateToken(id, "rider", "rider@example.com", staff, time.Hour)
	require.NoError(t, err)
	return "Bearer " + signed
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestIdMiddleware(t *testing.T) {
	var got string
	h := RequestIdMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = util.GetRequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("request_id", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc", got)
	require.Equal(t, "abc", rec.Header().Get("request_id"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, got, 36)
}

func TestAuthMiddleware(t *testing.T) {
	maker := newMaker(t)
	syncer := &fakeSyncer{}
	h := AuthPayloadMiddleware(maker)(AuthMiddleware(syncer)(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, int(er.UnauthenticatedCode), rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, int(er.UnauthenticatedCode), rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("authorization", bearer(t, maker, 7, false))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, syncer.synced, 1)
	require.EqualValues(t, 7, syncer.synced[0].UserID)

	syncer.err = errors.New("db down")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, int(er.InternalErrorCode), rec.Code)
}

func TestStaffMiddleware(t *testing.T) {
	maker := newMaker(t)
	h := AuthPayloadMiddleware(maker)(AuthMiddleware(&fakeSyncer{})(StaffMiddleware(okHandler)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("authorization", bearer(t, maker, 7, false))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, int(er.UnauthorizedCode), rec.Code)

	req.Header.Set("authorization", bearer(t, maker, 1, true))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionMiddleware(t *testing.T) {
	var got string
	h := SessionMiddleware(time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = util.GetSessionIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, constants.SessionCookieName, cookies[0].Name)
	require.Equal(t, got, cookies[0].Value)
	first := got

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: first})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, first, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "forged"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotEqual(t, "forged", got)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestLoggerMiddlewareRecordsStatus(t *testing.T) {
	h := LoggerMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitMiddleware(t *testing.T) {
	l := limiter.NewFixWindow(&limiter.LimiterConfig{Capacity: 2, RefillRate: time.Hour})
	h := NewRateLimitMiddleware(l)(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewRateLimitMiddleware(failingLimiter{})(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
