package handlers

import (
	"errors"

	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/pagination"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AccountHandler handles the admin account review queue
type AccountHandler struct {
	accountService *services.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// FreezeRequest represents a freeze body
type FreezeRequest struct {
	Reason string `json:"reason"`
}

// List returns accounts, optionally narrowed to one status
// @Summary List accounts
// @Description Returns accounts, optionally filtered by status
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/accounts [get]
func (h *AccountHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	accounts, total, err := h.accountService.List(c.Context(), c.Query("status"), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to load accounts")
	}

	items := make([]interface{}, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, a.ToResponse())
	}
	return response.Success(c, "", pagination.NewResponse(items, params, total))
}

// Get returns one account
// @Summary Get account
// @Description Returns one account by id
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/accounts/{id} [get]
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	accountID, err := c.ParamsInt("id")
	if err != nil || accountID <= 0 {
		return response.BadRequest(c, "Invalid account ID")
	}

	account, err := h.accountService.GetProfile(c.Context(), uint(accountID))
	if err != nil {
		return response.NotFound(c, "Account not found")
	}
	return response.Success(c, "", account.ToResponse())
}

// Approve activates a pending account
// @Summary Approve account
// @Description Activate a pending account
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/accounts/{id}/approve [put]
func (h *AccountHandler) Approve(c *fiber.Ctx) error {
	accountID, err := c.ParamsInt("id")
	if err != nil || accountID <= 0 {
		return response.BadRequest(c, "Invalid account ID")
	}

	account, err := h.accountService.Approve(c.Context(), uint(accountID))
	if err != nil {
		return h.mapStatusError(c, err)
	}
	return response.Success(c, "Account approved", account.ToResponse())
}

// Freeze freezes an account
// @Summary Freeze account
// @Description Freeze an account, blocking login and money movement
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Param body body FreezeRequest false "Freeze reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/accounts/{id}/freeze [put]
func (h *AccountHandler) Freeze(c *fiber.Ctx) error {
	accountID, err := c.ParamsInt("id")
	if err != nil || accountID <= 0 {
		return response.BadRequest(c, "Invalid account ID")
	}

	var req FreezeRequest
	_ = c.BodyParser(&req)

	account, err := h.accountService.Freeze(c.Context(), uint(accountID), req.Reason)
	if err != nil {
		return h.mapStatusError(c, err)
	}
	return response.Success(c, "Account frozen", account.ToResponse())
}

// Unfreeze returns a frozen account to active
// @Summary Unfreeze account
// @Description Return a frozen account to active
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/accounts/{id}/unfreeze [put]
func (h *AccountHandler) Unfreeze(c *fiber.Ctx) error {
	accountID, err := c.ParamsInt("id")
	if err != nil || accountID <= 0 {
		return response.BadRequest(c, "Invalid account ID")
	}

	account, err := h.accountService.Unfreeze(c.Context(), uint(accountID))
	if err != nil {
		return h.mapStatusError(c, err)
	}
	return response.Success(c, "Account unfrozen", account.ToResponse())
}

func (h *AccountHandler) mapStatusError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return response.NotFound(c, "Account not found")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "Superadmin accounts cannot be modified")
	default:
		return response.InternalServerError(c, "Failed to update account")
	}
}
