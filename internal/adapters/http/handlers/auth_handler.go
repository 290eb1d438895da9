package handlers

import (
	"errors"
	"strings"
	"time"

	"nsl-memberhub/internal/config"
	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService    *services.AuthService
	accountService *services.AccountService
	cfg            *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, accountService *services.AccountService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		accountService: accountService,
		cfg:            cfg,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Phone        string `json:"phone"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register handles account registration
// @Summary Register new account
// @Description Register a new account, optionally under a referral code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if req.Phone == "" {
		return response.BadRequest(c, "Phone number is required")
	}
	if req.Username == "" {
		return response.BadRequest(c, "Username is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	input := services.RegisterInput{
		Phone:        strings.TrimSpace(req.Phone),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		Password:     req.Password,
		ReferralCode: strings.TrimSpace(req.ReferralCode),
	}

	account, tokens, err := h.authService.Register(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "Password must be at least 8 characters")
		case errors.Is(err, services.ErrPhoneTaken):
			return response.Conflict(c, "Phone number already registered")
		case errors.Is(err, services.ErrUsernameTaken):
			return response.Conflict(c, "Username already taken")
		case errors.Is(err, services.ErrReferralCodeInvalid):
			return response.BadRequest(c, "Referral code not found")
		case errors.Is(err, domain.ErrValidationFailed):
			return response.BadRequest(c, "Phone and username are required")
		default:
			return response.InternalServerError(c, "Failed to register account")
		}
	}

	h.setAuthCookies(c, tokens.AccessToken, tokens.RefreshToken)

	return response.Created(c, "Account registered successfully", fiber.Map{
		"access_token": tokens.AccessToken,
		"account":      account.ToResponse(),
	})
}

// Login handles account login
// @Summary Login
// @Description Authenticate by phone and password and return tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Phone == "" {
		return response.BadRequest(c, "Phone number is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	account, tokens, err := h.authService.Login(c.Context(), req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid phone or password")
		case errors.Is(err, domain.ErrAccountFrozen):
			return response.Forbidden(c, "Account is frozen")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	h.setAuthCookies(c, tokens.AccessToken, tokens.RefreshToken)

	return response.Success(c, "Login successful", fiber.Map{
		"access_token": tokens.AccessToken,
		"account":      account.ToResponse(),
	})
}

// RefreshToken handles token refresh
// @Summary Refresh tokens
// @Description Rotate the refresh token and issue a new pair
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := h.getRefreshToken(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token required")
	}

	tokens, err := h.authService.Refresh(c.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenRevoked):
			return response.Unauthorized(c, "Refresh token revoked or expired")
		case errors.Is(err, domain.ErrAccountFrozen):
			return response.Forbidden(c, "Account is frozen")
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	h.setAuthCookies(c, tokens.AccessToken, tokens.RefreshToken)

	return response.Success(c, "Token refreshed", fiber.Map{
		"access_token": tokens.AccessToken,
	})
}

// Logout handles logout
// @Summary Logout
// @Description Revoke the presented refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if refreshToken := h.getRefreshToken(c); refreshToken != "" {
		_ = h.authService.Logout(c.Context(), refreshToken)
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll handles logout from all devices
// @Summary Logout everywhere
// @Description Revoke every refresh token the account holds
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)

	if err := h.authService.LogoutAll(c.Context(), accountID); err != nil {
		return response.InternalServerError(c, "Failed to logout")
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out from all devices", nil)
}

// Me returns the authenticated account
// @Summary Current account
// @Description Returns the authenticated account's profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)

	account, err := h.accountService.GetProfile(c.Context(), accountID)
	if err != nil {
		return response.NotFound(c, "Account not found")
	}

	return response.Success(c, "", account.ToResponse())
}

func (h *AuthHandler) getRefreshToken(c *fiber.Ctx) string {
	if token := c.Cookies("refresh_token"); token != "" {
		return token
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  time.Now().Add(time.Duration(h.cfg.JWT.AccessExpiryMinutes) * time.Minute),
		HTTPOnly: true,
		Secure:   h.cfg.IsProd(),
		SameSite: "Lax",
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(time.Duration(h.cfg.JWT.RefreshExpiryDays) * 24 * time.Hour),
		HTTPOnly: true,
		Secure:   h.cfg.IsProd(),
		SameSite: "Lax",
		Path:     "/",
	})
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})
}
