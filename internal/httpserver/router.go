package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stocksim/internal/auth"
	"stocksim/internal/httputil"
	"stocksim/internal/portfolio"
)

type RouterDeps struct {
	AuthHandler      *auth.Handler
	PortfolioHandler *portfolio.Handler
	AuthService      *auth.Service
	QuoteWS          http.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", d.AuthHandler.Register)
		r.Post("/auth/login", d.AuthHandler.Login)
		r.Get("/quote/ws", d.QuoteWS.ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
				sessionID, ok := SessionID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.AuthHandler.Logout(w, r, sessionID)
			})
			r.Get("/me", withUser(d.AuthHandler.Me))
			r.Get("/portfolio", withUser(d.PortfolioHandler.Index))
			r.Post("/buy", withUser(d.PortfolioHandler.Buy))
			r.Post("/sell", withUser(d.PortfolioHandler.Sell))
			r.Post("/deposit", withUser(d.PortfolioHandler.Deposit))
			r.Get("/history", withUser(d.PortfolioHandler.History))
			r.Get("/quote", withUser(d.PortfolioHandler.Quote))
		})
	})
	return r
}

func withUser(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r)
		if !ok {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
			return
		}
		h(w, r, userID)
	}
}
