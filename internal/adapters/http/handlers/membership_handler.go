package handlers

import (
	"errors"

	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/pagination"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MembershipHandler handles VIP membership endpoints
type MembershipHandler struct {
	membershipService *services.MembershipService
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(membershipService *services.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// PurchaseRequest represents a purchase request body
type PurchaseRequest struct {
	ProductID uint `json:"product_id"`
}

// AutoRenewRequest represents an auto-renew toggle body
type AutoRenewRequest struct {
	AutoRenew bool `json:"auto_renew"`
}

// Purchase buys a VIP product
// @Summary Purchase VIP product
// @Description Debit the NSL balance and activate a membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PurchaseRequest true "Purchase data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /memberships/purchase [post]
func (h *MembershipHandler) Purchase(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)

	var req PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ProductID == 0 {
		return response.BadRequest(c, "Product ID is required")
	}

	membership, err := h.membershipService.Purchase(c.Context(), accountID, req.ProductID)
	if err != nil {
		var owned *domain.AlreadyOwnedError
		switch {
		case errors.As(err, &owned):
			return response.Conflict(c, owned.Error())
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Product not found")
		case errors.Is(err, domain.ErrProductInactive):
			return response.UnprocessableEntity(c, "Product is not available")
		case errors.Is(err, domain.ErrInsufficientFunds):
			return response.UnprocessableEntity(c, "Insufficient NSL balance")
		case errors.Is(err, domain.ErrAccountFrozen):
			return response.Forbidden(c, "Account is frozen")
		default:
			return response.InternalServerError(c, "Failed to purchase product")
		}
	}

	return response.Created(c, "Membership activated", membership.ToResponse())
}

// ListMine returns the account's memberships
// @Summary My memberships
// @Description Returns the account's memberships, active first
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /memberships/my [get]
func (h *MembershipHandler) ListMine(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)
	params := pagination.GetParams(c)

	memberships, total, err := h.membershipService.ListByAccount(c.Context(), accountID, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to load memberships")
	}

	items := make([]interface{}, 0, len(memberships))
	for _, m := range memberships {
		items = append(items, m.ToResponse())
	}
	return response.Success(c, "", pagination.NewResponse(items, params, total))
}

// SetAutoRenew toggles auto-renew on one of the account's memberships
// @Summary Toggle auto-renew
// @Description Enable or disable automatic renewal at expiry
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Param body body AutoRenewRequest true "Auto-renew flag"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /memberships/{id}/auto-renew [put]
func (h *MembershipHandler) SetAutoRenew(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)

	membershipID, err := c.ParamsInt("id")
	if err != nil || membershipID <= 0 {
		return response.BadRequest(c, "Invalid membership ID")
	}

	var req AutoRenewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	err = h.membershipService.SetAutoRenew(c.Context(), accountID, uint(membershipID), req.AutoRenew)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Membership not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Not your membership")
		default:
			return response.InternalServerError(c, "Failed to update membership")
		}
	}

	return response.Success(c, "Auto-renew updated", nil)
}
