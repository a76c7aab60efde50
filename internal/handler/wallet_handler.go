package handler

import (
	"net/http"

	"crumble/internal/middleware"
	"crumble/internal/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	ledger *service.WalletLedger
}

func NewWalletHandler(ledger *service.WalletLedger) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// Balance returns the current user's spendable wallet balance in rupees.
func (h *WalletHandler) Balance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	balance, err := h.ledger.Balance(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "currency": "INR"})
}

// Transactions returns the user's ledger entries, newest first.
func (h *WalletHandler) Transactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	txs, err := h.ledger.Transactions(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
