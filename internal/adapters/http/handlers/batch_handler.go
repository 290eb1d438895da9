package handlers

import (
	"errors"

	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BatchHandler handles admin batch operations
type BatchHandler struct {
	batchService *services.BatchService
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batchService *services.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// BatchApproveRequest represents a batch approval body
type BatchApproveRequest struct {
	TransactionIDs []uint `json:"transaction_ids"`
}

// BatchRejectRequest represents a batch rejection body
type BatchRejectRequest struct {
	TransactionIDs []uint `json:"transaction_ids"`
	Reason         string `json:"reason"`
}

// BatchAddCurrencyRequest represents a batch credit body
type BatchAddCurrencyRequest struct {
	AccountIDs []uint  `json:"account_ids"`
	Currency   string  `json:"currency"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

// BatchStatusRequest represents a batch account status body
type BatchStatusRequest struct {
	AccountIDs []uint `json:"account_ids"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
}

// ApproveTransactions approves many pending requests
// @Summary Batch approve
// @Description Approve many pending requests; each settles independently
// @Tags Batch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BatchApproveRequest true "Transaction IDs"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/batch/transactions/approve [post]
func (h *BatchHandler) ApproveTransactions(c *fiber.Ctx) error {
	approverID := c.Locals("accountID").(uint)

	var req BatchApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	report, err := h.batchService.ApproveTransactions(c.Context(), req.TransactionIDs, approverID)
	if err != nil {
		if errors.Is(err, domain.ErrValidationFailed) {
			return response.BadRequest(c, "Transaction IDs are required")
		}
		return response.InternalServerError(c, "Failed to run batch approval")
	}
	return response.Success(c, "Batch approval completed", report)
}

// RejectTransactions rejects many pending requests
// @Summary Batch reject
// @Description Reject many pending requests with one shared reason
// @Tags Batch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BatchRejectRequest true "Transaction IDs and reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/batch/transactions/reject [post]
func (h *BatchHandler) RejectTransactions(c *fiber.Ctx) error {
	approverID := c.Locals("accountID").(uint)

	var req BatchRejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	report, err := h.batchService.RejectTransactions(c.Context(), req.TransactionIDs, approverID, req.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrValidationFailed) {
			return response.BadRequest(c, "Transaction IDs and a reason are required")
		}
		return response.InternalServerError(c, "Failed to run batch rejection")
	}
	return response.Success(c, "Batch rejection completed", report)
}

// AddCurrency credits many accounts at once
// @Summary Batch credit
// @Description Credit the same amount to many accounts with an audit reason
// @Tags Batch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BatchAddCurrencyRequest true "Targets, amount and reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/batch/accounts/credit [post]
func (h *BatchHandler) AddCurrency(c *fiber.Ctx) error {
	adminID := c.Locals("accountID").(uint)

	var req BatchAddCurrencyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	money := domain.Money{Currency: domain.Currency(req.Currency), Amount: req.Amount}
	report, err := h.batchService.AddCurrency(c.Context(), req.AccountIDs, money, req.Reason, adminID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidationFailed):
			return response.BadRequest(c, "Account IDs and a reason of at least 5 characters are required")
		case errors.Is(err, domain.ErrUnknownCurrency):
			return response.BadRequest(c, "Currency must be NSL or USDT")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Amount must be greater than zero")
		default:
			return response.InternalServerError(c, "Failed to run batch credit")
		}
	}
	return response.Success(c, "Batch credit completed", report)
}

// SetAccountStatus moves many accounts to one status
// @Summary Batch account status
// @Description Move many accounts to one status; superadmins are refused per target
// @Tags Batch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BatchStatusRequest true "Targets and status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/batch/accounts/status [post]
func (h *BatchHandler) SetAccountStatus(c *fiber.Ctx) error {
	var req BatchStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	report, err := h.batchService.SetAccountStatus(c.Context(), req.AccountIDs, req.Status, req.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrValidationFailed) {
			return response.BadRequest(c, "Account IDs and a valid status are required")
		}
		return response.InternalServerError(c, "Failed to run batch status change")
	}
	return response.Success(c, "Batch status change completed", report)
}
