package handlers

import (
	"strconv"
	"time"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/config"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/dto"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/middleware"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/security"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/services"
	"github.com/gofiber/fiber/v2"
)

// Cookie names. The session cookie carries the bearer token; the two ticket
// cookies bind an OTP confirmation to the request that triggered it.
const (
	cookieSession      = "token"
	cookieVerifyTicket = "verify_ticket"
	cookieResetTicket  = "reset_ticket"
)

type AuthHandler struct {
	authService  *services.AuthService
	oauthService *services.OAuthService
	signer       *security.TokenSigner
	cfg          *config.Config
}

func NewAuthHandler(authService *services.AuthService, oauthService *services.OAuthService, signer *security.TokenSigner, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		oauthService: oauthService,
		signer:       signer,
		cfg:          cfg,
	}
}

// Signup stages the signup and sends the OTP email. The response carries the
// sanitized pending record; the verify ticket rides an HTTP-only cookie.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	pending, ticket, err := h.authService.Signup(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}

	h.setCookie(c, cookieVerifyTicket, ticket, h.cfg.TicketExpiry)
	return c.Status(fiber.StatusCreated).JSON(dto.Response{
		Success: true,
		Message: "OTP sent to email. Please verify to complete signup.",
		Data:    pending,
	})
}

// VerifyOtp resolves the email from the verify ticket, checks the OTP, and
// promotes the pending signup. Issues the session cookie and clears the
// ticket.
func (h *AuthHandler) VerifyOtp(c *fiber.Ctx) error {
	ticket := c.Cookies(cookieVerifyTicket)
	if ticket == "" {
		return unauthorized(c, "Verification ticket missing")
	}
	claims, err := h.signer.VerifyTicket(ticket, security.ScopeVerify)
	if err != nil {
		return unauthorized(c, "Invalid or expired verification ticket")
	}

	var req dto.VerifyOtpRequest
	if err := c.BodyParser(&req); err != nil || req.Otp == "" {
		return badRequest(c, "OTP is required")
	}

	user, err := h.authService.VerifySignup(c.UserContext(), claims.Email, req.Otp)
	if err != nil {
		return respondError(c, err)
	}

	token, err := h.signer.SignSession(user.ID, user.Email)
	if err != nil {
		return respondError(c, err)
	}

	h.clearCookie(c, cookieVerifyTicket)
	h.setCookie(c, cookieSession, token, h.cfg.SessionExpiry)
	return c.Status(fiber.StatusCreated).JSON(dto.Response{
		Success: true,
		Message: "Signup complete!",
		Data: dto.VerifyData{
			UserID: strconv.FormatInt(user.ID, 10),
			Token:  token,
		},
	})
}

func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req dto.SigninRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, token, err := h.authService.Signin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	h.setCookie(c, cookieSession, token, h.cfg.SessionExpiry)
	return c.JSON(dto.Response{
		Success: true,
		Message: "Signin successful",
		Data:    dto.SigninData{User: user, Token: token},
	})
}

func (h *AuthHandler) OAuthLogin(c *fiber.Ctx) error {
	var req dto.OAuthLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, account, token, err := h.oauthService.Login(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}

	h.setCookie(c, cookieSession, token, h.cfg.SessionExpiry)
	return c.JSON(dto.Response{
		Success: true,
		Message: "OAuth login successful",
		Data:    dto.OAuthLoginData{User: user, Account: account},
	})
}

// ForgotPassword issues a reset OTP and sets the reset ticket cookie.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ticket, err := h.authService.ForgotPassword(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, err)
	}

	h.setCookie(c, cookieResetTicket, ticket, h.cfg.TicketExpiry)
	return c.JSON(dto.Response{
		Success: true,
		Message: "OTP sent to email. Please verify to reset password.",
	})
}

// ResetPassword resolves the email from the reset ticket, validates the OTP,
// and swaps the password. Issues a fresh session and clears the ticket.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	ticket := c.Cookies(cookieResetTicket)
	if ticket == "" {
		return unauthorized(c, "Reset ticket missing")
	}
	claims, err := h.signer.VerifyTicket(ticket, security.ScopeReset)
	if err != nil {
		return unauthorized(c, "Invalid or expired reset ticket")
	}

	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	token, err := h.authService.ResetPassword(c.UserContext(), claims.Email, req.Otp, req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}

	h.clearCookie(c, cookieResetTicket)
	h.setCookie(c, cookieSession, token, h.cfg.SessionExpiry)
	return c.JSON(dto.Response{
		Success: true,
		Message: "Password reset successful",
		Data:    dto.TokenData{Token: token},
	})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	ident, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c, "Unauthorized")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authService.ChangePassword(c.UserContext(), ident.Email, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.Response{
		Success: true,
		Message: "Password changed successfully",
	})
}

// Logout clears the session cookie. The token itself stays valid until its
// natural expiry; the session TTL is the true session bound.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearCookie(c, cookieSession)
	return c.JSON(dto.Response{
		Success: true,
		Message: "Logged out successfully",
	})
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
