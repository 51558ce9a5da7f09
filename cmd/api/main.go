package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"stocksim/internal/auth"
	"stocksim/internal/config"
	"stocksim/internal/db"
	"stocksim/internal/httpserver"
	"stocksim/internal/portfolio"
	"stocksim/internal/quotes"
	"stocksim/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	startingCash, err := decimal.NewFromString(cfg.StartingCash)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal(err)
	}
	st := store.NewPostgres(pool)
	provider := quotes.NewClient(cfg.QuoteAPIURL, cfg.QuoteAPIKey)
	authSvc := auth.NewService(st, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL, startingCash)
	authHandler := auth.NewHandler(authSvc)
	portfolioSvc := portfolio.NewService(st, provider)
	portfolioHandler := portfolio.NewHandler(portfolioSvc)
	quoteWS := quotes.NewStreamWS(cfg.WSOrigin, provider)
	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:      authHandler,
		PortfolioHandler: portfolioHandler,
		AuthService:      authSvc,
		QuoteWS:          quoteWS,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	log.Printf("server listening on %s", cfg.HTTPAddr)
	log.Printf("health endpoint: http://localhost%s/health", cfg.HTTPAddr)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
