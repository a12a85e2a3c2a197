package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// UserHandler handles profile and wallet requests.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me handles GET /v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// TopUpRequest is the HTTP request body for a wallet top-up.
type TopUpRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// TransactionResponse is the HTTP representation of a ledger entry.
type TransactionResponse struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          txn.ID,
		Amount:      txn.Amount,
		Type:        string(txn.Type),
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// TopUp handles POST /v1/wallet/topup
func (h *UserHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	txn, err := h.userService.TopUpWallet(c.Request.Context(), c.GetString(middleware.ContextUserID), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTransactionResponse(txn))
}

// Balance handles GET /v1/wallet/balance
func (h *UserHandler) Balance(c *gin.Context) {
	balance, err := h.userService.WalletBalance(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// Transactions handles GET /v1/wallet/transactions
func (h *UserHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	txns, err := h.userService.Transactions(c.Request.Context(), c.GetString(middleware.ContextUserID), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	c.JSON(http.StatusOK, out)
}

// Revenue handles GET /v1/admin/revenue
func (h *UserHandler) Revenue(c *gin.Context) {
	role := domain.Role(c.GetString(middleware.ContextUserRole))

	revenue, err := h.userService.PlatformRevenue(c.Request.Context(), role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_revenue": revenue})
}
