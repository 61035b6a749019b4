package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/api/v1/auth")

	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Logout)
	auth.Post("/request-password-reset", h.RequestPasswordReset)
	auth.Post("/reset-password", h.ResetPassword)
	auth.Post("/verify-email", h.VerifyEmail)
	auth.Post("/resend-verification", h.ResendVerification)

	// Everything below needs an authenticated caller.
	protected := auth.Group("", RequireAuth(h.tokenService))
	protected.Get("/me", h.Me)
	protected.Post("/change-password", h.ChangePassword)
	protected.Post("/mfa/generate-secret", h.GenerateMfaSecret)
	protected.Post("/mfa/verify-setup", h.VerifyMfaSetup)
	protected.Post("/mfa/enable", h.EnableMfa)
	protected.Post("/mfa/disable", h.DisableMfa)
}
