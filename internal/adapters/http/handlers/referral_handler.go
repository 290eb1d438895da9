package handlers

import (
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/pagination"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReferralHandler handles referral program endpoints
type ReferralHandler struct {
	referralService *services.ReferralService
	accountService  *services.AccountService
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referralService *services.ReferralService, accountService *services.AccountService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		accountService:  accountService,
	}
}

// ListMine returns the account's referral earnings
// @Summary My referrals
// @Description Returns the referrals the account has earned, with totals
// @Tags Referrals
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /referrals/my [get]
func (h *ReferralHandler) ListMine(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)
	params := pagination.GetParams(c)

	summary, total, err := h.referralService.ListByReferrer(c.Context(), accountID, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to load referrals")
	}
	return response.Success(c, "", pagination.NewResponse(summary, params, total))
}

// GetCode returns the account's shareable referral code
// @Summary My referral code
// @Description Returns the account's referral code for sharing
// @Tags Referrals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /referrals/code [get]
func (h *ReferralHandler) GetCode(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)

	account, err := h.accountService.GetProfile(c.Context(), accountID)
	if err != nil {
		return response.NotFound(c, "Account not found")
	}
	return response.Success(c, "", fiber.Map{
		"referral_code": account.ReferralCode,
	})
}
