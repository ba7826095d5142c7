package router

import (
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/api"
	m "github.com/RoyceAzure/lab/bikemarket/internal/api/middleware"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/limiter"
	"github.com/RoyceAzure/lab/bikemarket/internal/util/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Options struct {
	TokenMaker  token.Maker
	Users       m.UserSyncer
	RateLimiter limiter.Limiter // nil 代表不限流
	SessionTTL  time.Duration
	Logger      *zerolog.Logger
}

func SetupRouter(server *api.Server, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RecoverMiddleware)
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	if opts.RateLimiter != nil {
		r.Use(m.NewRateLimitMiddleware(opts.RateLimiter))
	}
	r.Use(m.AuthPayloadMiddleware(opts.TokenMaker))
	r.Use(m.LoggerMiddleware(opts.Logger))
	r.Use(middleware.Timeout(60 * time.Second))

	auth := m.AuthMiddleware(opts.Users)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		// 瀏覽
		r.Group(func(r chi.Router) {
			r.Get("/listings/home", server.ListingHandler.Home)
			r.Get("/listings/search", server.ListingHandler.Search)
			r.Get("/listings", server.ListingHandler.BuyList)
			r.Get("/listings/{id}", server.ListingHandler.Detail)
			r.Get("/listings/{id}/images", server.ListingHandler.Images)
			r.Get("/categories", server.ListingHandler.Categories)
			r.Get("/categories/{id}/listings", server.ListingHandler.CategoryListings)
			r.Get("/banners", server.ListingHandler.Banners)
			r.Get("/account/activate/{uid}/{token}", server.AccountHandler.Activate)
		})

		// 購物車, 匿名也可使用
		r.Group(func(r chi.Router) {
			r.Use(m.SessionMiddleware(opts.SessionTTL))
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", server.CartHandler.Get)
				r.Delete("/", server.CartHandler.Clear)
				r.Post("/{listingID}", server.CartHandler.Add)
				r.Put("/{listingID}", server.CartHandler.Update)
				r.Delete("/{listingID}", server.CartHandler.Remove)
			})
			r.With(auth).Post("/checkout", server.OrderHandler.Checkout)
		})

		// 需要登入
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/orders", server.OrderHandler.ListOrders)
			r.Get("/orders/{id}", server.OrderHandler.GetOrder)

			r.Route("/sell", func(r chi.Router) {
				r.Get("/", server.ListingHandler.SellerListings)
				r.Post("/", server.ListingHandler.CreateListing)
				r.Put("/{id}", server.ListingHandler.EditListing)
				r.Delete("/{id}", server.ListingHandler.DeleteListing)
				r.Delete("/images/{imageID}", server.ListingHandler.DeleteImage)
			})

			r.Route("/support/messages", func(r chi.Router) {
				r.Get("/", server.SupportHandler.History)
				r.Post("/", server.SupportHandler.Post)
				r.Get("/{id}/replies", server.SupportHandler.Replies)
			})

			r.Get("/profile", server.AccountHandler.GetProfile)
			r.Put("/profile", server.AccountHandler.UpdateProfile)
			r.Post("/account/activation", server.AccountHandler.SendActivation)
		})

		// 後台
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth)
			r.Use(m.StaffMiddleware)

			r.Get("/dashboard", server.AdminHandler.Dashboard)

			r.Get("/listings/pending", server.AdminHandler.PendingListings)
			r.Post("/listings/approve", server.AdminHandler.Approve)
			r.Post("/listings/reject", server.AdminHandler.Reject)

			r.Post("/categories", server.AdminHandler.CreateCategory)
			r.Delete("/categories/{id}", server.AdminHandler.DeleteCategory)

			r.Post("/banners", server.AdminHandler.CreateBanner)
			r.Delete("/banners/{id}", server.AdminHandler.DeleteBanner)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", server.AdminHandler.ListOrders)
				r.Get("/export", server.AdminHandler.ExportOrders)
				r.Post("/confirm", server.AdminHandler.ConfirmOrders)
				r.Get("/{id}", server.AdminHandler.GetOrder)
				r.Put("/{id}/status", server.AdminHandler.UpdateOrderStatus)
			})

			r.Route("/support", func(r chi.Router) {
				r.Get("/unread", server.SupportHandler.Unread)
				r.Get("/users", server.SupportHandler.Users)
				r.Get("/users/{userID}", server.SupportHandler.Conversation)
				r.Post("/users/{userID}/reply", server.SupportHandler.DirectReply)
				r.Get("/tickets", server.SupportHandler.Tickets)
				r.Post("/tickets/{id}/reply", server.SupportHandler.StaffReply)
				r.Put("/tickets/{id}", server.SupportHandler.UpdateTicket)
			})
		})
	})

	// 在設置完所有路由後打印路由樹
	chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		log.Debug().Str("method", method).Str("route", route).Msg("route registered")
		return nil
	})
	return r
}

// WithTracing 每個請求建立一個 otel span
func WithTracing(h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, "bikemarket-api")
}
