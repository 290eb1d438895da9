package handlers

import (
	"errors"

	"nsl-memberhub/internal/adapters/persistence/models"
	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/pagination"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler handles balance and money movement endpoints
type WalletHandler struct {
	ledgerService   *services.LedgerService
	approvalService *services.ApprovalService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(ledgerService *services.LedgerService, approvalService *services.ApprovalService) *WalletHandler {
	return &WalletHandler{
		ledgerService:   ledgerService,
		approvalService: approvalService,
	}
}

// MoneyRequest represents a deposit or withdrawal request body
type MoneyRequest struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Notes    string  `json:"notes"`
}

// GetBalances returns the account's wallet balances
// @Summary Wallet balances
// @Description Returns the account's NSL and USDT balances
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /wallet/balances [get]
func (h *WalletHandler) GetBalances(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)

	nsl, usdt, err := h.ledgerService.Balances(c.Context(), accountID)
	if err != nil {
		return response.NotFound(c, "Account not found")
	}

	return response.Success(c, "", fiber.Map{
		"balance_nsl":  nsl,
		"balance_usdt": usdt,
	})
}

// GetHistory returns the account's transaction history
// @Summary Transaction history
// @Description Returns the account's transactions, newest first
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param type query string false "Filter by transaction type"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /wallet/transactions [get]
func (h *WalletHandler) GetHistory(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)
	params := pagination.GetParams(c)

	txns, total, err := h.ledgerService.History(c.Context(), accountID, c.Query("type"), c.Query("status"), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to load transactions")
	}

	return response.Success(c, "", pagination.NewResponse(txns, params, total))
}

// RequestDeposit files a pending deposit request
// @Summary Request deposit
// @Description File a deposit request for admin approval
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MoneyRequest true "Deposit data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /wallet/deposits [post]
func (h *WalletHandler) RequestDeposit(c *fiber.Ctx) error {
	return h.createRequest(c, models.TxTypeRecharge)
}

// RequestWithdrawal files a pending withdrawal request
// @Summary Request withdrawal
// @Description File a withdrawal request for admin approval
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MoneyRequest true "Withdrawal data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /wallet/withdrawals [post]
func (h *WalletHandler) RequestWithdrawal(c *fiber.Ctx) error {
	return h.createRequest(c, models.TxTypeWithdrawal)
}

func (h *WalletHandler) createRequest(c *fiber.Ctx, txType string) error {
	accountID := c.Locals("accountID").(uint)

	var req MoneyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	money := domain.Money{Currency: domain.Currency(req.Currency), Amount: req.Amount}
	txn, err := h.approvalService.CreateRequest(c.Context(), accountID, txType, money, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownCurrency):
			return response.BadRequest(c, "Currency must be NSL or USDT")
		case errors.Is(err, domain.ErrInvalidAmount):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, domain.ErrAccountFrozen):
			return response.Forbidden(c, "Account is frozen")
		default:
			return response.InternalServerError(c, "Failed to create request")
		}
	}

	return response.Created(c, "Request submitted for review", txn)
}
