package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citylog/internal/api"
	"citylog/internal/app/service"
	"citylog/internal/common/security"
	"citylog/internal/domain/repository"
	"citylog/internal/platform/cache"
	"citylog/internal/platform/config"
	"citylog/internal/platform/database"
	"citylog/internal/platform/email"
)

func main() {
	cfg := config.Load()
	log.Printf("Configuration loaded (%s mode)", cfg.Env)

	db := database.Connect(cfg.DBConnStr)
	defer db.Close()

	rdb := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()

	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExp)
	mailer := email.NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailSender, cfg.EmailFromName)

	userRepo := repository.NewPgUserRepository(db)
	cityRepo := repository.NewPgCityRepository(db)

	authService := service.NewAuthService(userRepo, tokens, mailer)
	userService := service.NewUserService(userRepo)
	cityService := service.NewCityService(cityRepo)

	router := api.NewRouter(cfg, tokens, userRepo, authService, userService, cityService,
		cache.NewFixedWindowCounter(rdb))

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", cfg.APIPort, err)
		}
	}()

	<-stop

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully.")
}
