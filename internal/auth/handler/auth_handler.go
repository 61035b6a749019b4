package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/razorvilla/calendar-app-sub001/internal/auth/dto"
	"github.com/razorvilla/calendar-app-sub001/internal/auth/service"
	autherror "github.com/razorvilla/calendar-app-sub001/internal/errors"
)

type AuthHandler struct {
	userService  *service.UserService
	mfaService   *service.MfaService
	resetService *service.PasswordResetService
	tokenService service.TokenGenerator
}

func NewAuthHandler(userService *service.UserService, mfaService *service.MfaService,
	resetService *service.PasswordResetService, tokenService service.TokenGenerator) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		mfaService:   mfaService,
		resetService: resetService,
		tokenService: tokenService,
	}
}

// errorResponse translates service errors into the HTTP taxonomy. Unexpected
// errors are logged with context and surfaced as a generic 500.
func errorResponse(c *fiber.Ctx, err error) error {
	if locked, ok := autherror.AsAccountLocked(err); ok {
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": locked.Error()})
	}

	switch {
	case errors.Is(err, autherror.ErrInvalidInput),
		errors.Is(err, autherror.ErrWeakPassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrInvalidCredentials),
		errors.Is(err, autherror.ErrInvalidMfaToken),
		errors.Is(err, autherror.ErrInvalidOrExpiredToken),
		errors.Is(err, autherror.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrMfaAlreadyEnabled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrAccountNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("error: %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	user, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.RegisterOutput{
		Message: "registration successful, please verify your email",
		UserID:  user.ID,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	output, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(output)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	tokens, err := h.userService.Refresh(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

// Logout succeeds even when no valid token is presented.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	_ = c.BodyParser(&input)

	if err := h.userService.Logout(c.Context(), input.RefreshToken); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

// RequestPasswordReset answers identically whether or not the email maps to
// an account.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var input dto.RequestPasswordResetInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.resetService.Request(c.Context(), input.Email); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "if an account exists for that email, a reset link has been sent",
	})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input dto.ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.resetService.Redeem(c.Context(), input.Token, input.Password); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "password has been reset"})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var input dto.VerifyEmailInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.VerifyEmail(c.Context(), input.Token); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "email verified"})
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var input dto.ResendVerificationInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.ResendVerification(c.Context(), input.Email); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "if an account exists for that email, a verification link has been sent",
	})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.ChangePassword(c.Context(), authenticatedUserID(c), input); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "password changed"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	profile, err := h.userService.GetProfile(c.Context(), authenticatedUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

func (h *AuthHandler) GenerateMfaSecret(c *fiber.Ctx) error {
	secret, uri, err := h.mfaService.GenerateSecret(c.Context(), authenticatedUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.MfaSecretOutput{
		Secret:        secret,
		EnrollmentURI: uri,
	})
}

func (h *AuthHandler) VerifyMfaSetup(c *fiber.Ctx) error {
	var input dto.MfaCodeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	valid, err := h.mfaService.VerifySetup(c.Context(), authenticatedUserID(c), input.Token)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.MfaVerifyOutput{Valid: valid})
}

func (h *AuthHandler) EnableMfa(c *fiber.Ctx) error {
	var input dto.MfaCodeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.mfaService.Enable(c.Context(), authenticatedUserID(c), input.Token); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "mfa enabled"})
}

func (h *AuthHandler) DisableMfa(c *fiber.Ctx) error {
	if err := h.mfaService.Disable(c.Context(), authenticatedUserID(c)); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "mfa disabled"})
}
