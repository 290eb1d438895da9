package handlers

import (
	"errors"
	"strconv"
	"strings"

	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CurrencyHandler handles conversion and currency admin endpoints
type CurrencyHandler struct {
	rateService *services.RateService
}

// NewCurrencyHandler creates a new currency handler
func NewCurrencyHandler(rateService *services.RateService) *CurrencyHandler {
	return &CurrencyHandler{rateService: rateService}
}

// OverrideRequest represents an admin rate override body
type OverrideRequest struct {
	Rate   float64 `json:"rate"`
	Reason string  `json:"reason"`
}

// List returns the enabled display currencies
// @Summary List currencies
// @Description Returns enabled display currencies and their active rates
// @Tags Currencies
// @Produce json
// @Success 200 {object} response.Response
// @Router /currencies [get]
func (h *CurrencyHandler) List(c *fiber.Ctx) error {
	rates, err := h.rateService.List(c.Context(), true)
	if err != nil {
		return response.InternalServerError(c, "Failed to load currencies")
	}
	return response.Success(c, "", rates)
}

// Convert converts an amount between two currencies
// @Summary Convert amount
// @Description Convert an amount between two enabled currencies via USD
// @Tags Currencies
// @Produce json
// @Param amount query number true "Amount to convert"
// @Param from query string true "Source currency code"
// @Param to query string true "Target currency code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /currencies/convert [get]
func (h *CurrencyHandler) Convert(c *fiber.Ctx) error {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil || amount < 0 {
		return response.BadRequest(c, "A non-negative amount is required")
	}
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		return response.BadRequest(c, "Both from and to currencies are required")
	}

	converted, err := h.rateService.Convert(c.Context(), amount, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrCurrencyNotFound) {
			return response.NotFound(c, "Currency not found or disabled")
		}
		return response.InternalServerError(c, "Failed to convert amount")
	}

	return response.Success(c, "", fiber.Map{
		"amount":    amount,
		"from":      strings.ToUpper(from),
		"to":        strings.ToUpper(to),
		"converted": converted,
	})
}

// ListAll returns every currency including disabled ones (admin)
// @Summary List all currencies
// @Description Returns every currency with feed and override detail
// @Tags Currencies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/currencies [get]
func (h *CurrencyHandler) ListAll(c *fiber.Ctx) error {
	rates, err := h.rateService.List(c.Context(), false)
	if err != nil {
		return response.InternalServerError(c, "Failed to load currencies")
	}
	return response.Success(c, "", rates)
}

// Upsert creates or updates a currency (admin)
// @Summary Upsert currency
// @Description Create a currency or update its base fields and feed rate
// @Tags Currencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CurrencyInput true "Currency data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/currencies [post]
func (h *CurrencyHandler) Upsert(c *fiber.Ctx) error {
	var input services.CurrencyInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	rate, err := h.rateService.Upsert(c.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrValidationFailed) {
			return response.BadRequest(c, "Code and a positive rate are required")
		}
		return response.InternalServerError(c, "Failed to save currency")
	}
	return response.Success(c, "Currency saved", rate)
}

// SetOverride pins a currency to an admin rate (admin)
// @Summary Set rate override
// @Description Pin a currency to an admin-supplied rate until cleared
// @Tags Currencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Currency code"
// @Param body body OverrideRequest true "Override rate and reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/currencies/{code}/override [put]
func (h *CurrencyHandler) SetOverride(c *fiber.Ctx) error {
	adminID := c.Locals("accountID").(uint)
	code := c.Params("code")

	var req OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	rate, err := h.rateService.SetOverride(c.Context(), code, req.Rate, req.Reason, adminID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidationFailed):
			return response.BadRequest(c, "Rate must be greater than zero")
		case errors.Is(err, domain.ErrCurrencyNotFound):
			return response.NotFound(c, "Currency not found")
		default:
			return response.InternalServerError(c, "Failed to set override")
		}
	}
	return response.Success(c, "Override set", rate)
}

// ClearOverride returns a currency to its feed rate (admin)
// @Summary Clear rate override
// @Description Return a currency to its last feed rate
// @Tags Currencies
// @Produce json
// @Security BearerAuth
// @Param code path string true "Currency code"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/currencies/{code}/override [delete]
func (h *CurrencyHandler) ClearOverride(c *fiber.Ctx) error {
	code := c.Params("code")

	rate, err := h.rateService.ClearOverride(c.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCurrencyNotFound):
			return response.NotFound(c, "Currency not found")
		case errors.Is(err, domain.ErrNoFeedRate):
			return response.UnprocessableEntity(c, "No feed rate recorded; set one before clearing the override")
		default:
			return response.InternalServerError(c, "Failed to clear override")
		}
	}
	return response.Success(c, "Override cleared", rate)
}
