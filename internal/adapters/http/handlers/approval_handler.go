package handlers

import (
	"errors"

	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/pagination"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ApprovalHandler handles the admin transaction review queue
type ApprovalHandler struct {
	approvalService *services.ApprovalService
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvalService *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// RejectRequest represents a rejection body
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ListPending returns the pending review queue
// @Summary Pending requests
// @Description Returns pending deposit/withdrawal requests
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param type query string false "Filter by transaction type"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/transactions/pending [get]
func (h *ApprovalHandler) ListPending(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	txns, total, err := h.approvalService.ListPending(c.Context(), c.Query("type"), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to load pending requests")
	}
	return response.Success(c, "", pagination.NewResponse(txns, params, total))
}

// Get returns one transaction
// @Summary Get transaction
// @Description Returns one transaction by id
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/transactions/{id} [get]
func (h *ApprovalHandler) Get(c *fiber.Ctx) error {
	txnID, err := c.ParamsInt("id")
	if err != nil || txnID <= 0 {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	txn, err := h.approvalService.Get(c.Context(), uint(txnID))
	if err != nil {
		return response.NotFound(c, "Transaction not found")
	}
	return response.Success(c, "", txn)
}

// Approve settles a pending request
// @Summary Approve request
// @Description Approve a pending request; deposits credit, withdrawals debit
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/transactions/{id}/approve [put]
func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	approverID := c.Locals("accountID").(uint)

	txnID, err := c.ParamsInt("id")
	if err != nil || txnID <= 0 {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	txn, err := h.approvalService.Approve(c.Context(), uint(txnID), approverID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Transaction not found")
		case errors.Is(err, domain.ErrNotPending):
			return response.Conflict(c, "Transaction is no longer pending")
		case errors.Is(err, domain.ErrInsufficientFunds):
			return response.UnprocessableEntity(c, "Balance cannot cover this withdrawal; request stays pending")
		default:
			return response.InternalServerError(c, "Failed to approve transaction")
		}
	}
	return response.Success(c, "Transaction approved", txn)
}

// Reject closes a pending request without moving money
// @Summary Reject request
// @Description Reject a pending request with a reason
// @Tags Approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param body body RejectRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/transactions/{id}/reject [put]
func (h *ApprovalHandler) Reject(c *fiber.Ctx) error {
	approverID := c.Locals("accountID").(uint)

	txnID, err := c.ParamsInt("id")
	if err != nil || txnID <= 0 {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Reason == "" {
		return response.BadRequest(c, "Rejection reason is required")
	}

	txn, err := h.approvalService.Reject(c.Context(), uint(txnID), approverID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Transaction not found")
		case errors.Is(err, domain.ErrNotPending):
			return response.Conflict(c, "Transaction is no longer pending")
		default:
			return response.InternalServerError(c, "Failed to reject transaction")
		}
	}
	return response.Success(c, "Transaction rejected", txn)
}
