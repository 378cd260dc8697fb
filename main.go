package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"SIMS-backend/internal/inventory/disposals"
	"SIMS-backend/internal/inventory/items"
	"SIMS-backend/internal/inventory/settings"
	"SIMS-backend/internal/inventory/transactions"
	"SIMS-backend/internal/platform/auth"
	"SIMS-backend/internal/platform/db"
)

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}
	if cfg.Auth.Secret == "" {
		panic("auth.secret must be set in config/config.yaml")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	settingsSvc := settings.NewService(conn)
	if err := settingsSvc.Load(context.Background()); err != nil {
		// Missing settings is not fatal: the defaults cover reads until
		// the first PUT succeeds.
		log.Printf("[WARN] settings unavailable, using defaults: %v", err)
	}

	secret := []byte(cfg.Auth.Secret)
	tokenTTL := time.Duration(cfg.Auth.TokenHours) * time.Hour
	authSvc := auth.NewService(conn, secret, tokenTTL)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS is only needed while the frontend dev server runs apart.
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// /api/v1: login is open, everything else requires a staff token;
	// account management is admin-only.
	api := r.Group("/api/v1")
	auth.RegisterRoutes(api, authSvc)

	admin := api.Group("", auth.RequireAuth(secret), auth.RequireRole("admin"))
	auth.RegisterAccountRoutes(admin, authSvc)

	protected := api.Group("", auth.RequireAuth(secret))
	items.RegisterRoutes(protected, items.NewService(conn, settingsSvc))
	transactions.RegisterRoutes(protected, transactions.NewService(conn, settingsSvc))
	disposals.RegisterRoutes(protected, disposals.NewService(conn))
	settings.RegisterRoutes(protected, settingsSvc)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			certFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Cert)
			keyFile := fmt.Sprintf("config/tls/%s/%s", mode, cfg.Certificate.Key)
			log.Printf("[INFO] listening on https://0.0.0.0%s", cfg.Addr)
			if err := srv.ListenAndServeTLS(certFile, keyFile); err != nil && err != http.ErrServerClosed {
				log.Fatal(err)
			}
			return
		}
		log.Printf("[INFO] listening on http://0.0.0.0%s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
