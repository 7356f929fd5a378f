package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bluemedix-system/config"
	"bluemedix-system/internal/auth"
	"bluemedix-system/internal/database"
	"bluemedix-system/internal/handlers"
	"bluemedix-system/internal/pricing"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	rdb := config.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	calc, err := pricing.NewCalculator(cfg.Pricing.DeliverySurcharge)
	if err != nil {
		log.Fatalf("pricing setup failed: %v", err)
	}

	r := gin.Default()
	registerRoutes(r, cfg, deps{
		users:      handlers.NewUserHandler(db, rdb, tokens, cfg.Auth.OTPTTL),
		franchises: handlers.NewFranchiseHandler(db),
		catalog:    handlers.NewCatalogHandler(db, rdb),
		stock:      handlers.NewStockHandler(db),
		cart:       handlers.NewCartHandler(db, calc),
		orders:     handlers.NewOrderHandler(db, calc),
		addresses:  handlers.NewAddressHandler(db),
		tokens:     tokens,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("API listening on :%s", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
}
