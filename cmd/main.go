package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/razorvilla/calendar-app-sub001/config"
	"github.com/razorvilla/calendar-app-sub001/db"
	"github.com/razorvilla/calendar-app-sub001/internal/auth/handler"
	repo "github.com/razorvilla/calendar-app-sub001/internal/auth/repository/postgres"
	"github.com/razorvilla/calendar-app-sub001/internal/auth/service"
	"github.com/razorvilla/calendar-app-sub001/internal/mailer"
)

func main() {
	cfg := config.Load()

	dbPool, err := db.NewPostgresPool(context.Background(), cfg.DBURL)
	if err != nil {
		log.Fatalf("failed to initialise database pool: %v", err)
	}
	defer dbPool.Close()

	userRepo := repo.NewPostgresUserRepository(dbPool)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.ResetTokenSecret,
		cfg.AccessExpiryMin, cfg.RefreshExpiryMin, cfg.ResetExpiryMin, cfg.VerifyExpiryMin)
	hasher := service.NewPasswordHasher()
	lockout := service.NewLockoutPolicy(userRepo, cfg.LoginMaxAttempts, cfg.LockoutDurationMin)
	mfaService := service.NewMfaService(userRepo, cfg.TOTPIssuer)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser,
		cfg.SMTPPassword, cfg.FromEmail, cfg.AppBaseURL)
	resetService := service.NewPasswordResetService(userRepo, userRepo, tokenService, hasher, smtpMailer)
	userService := service.NewUserService(userRepo, tokenService, lockout, mfaService, hasher, smtpMailer)
	authHandler := handler.NewAuthHandler(userService, mfaService, resetService, tokenService)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
