// README: Wallet handlers: top-up, balance, ledger history, and the escrow hold.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/http/middleware"
	"courier/internal/modules/wallet"
)

type WalletHandler struct {
	wallet *wallet.Service
}

func NewWalletHandler(svc *wallet.Service) *WalletHandler {
	return &WalletHandler{wallet: svc}
}

func (h *WalletHandler) TopUp(c *gin.Context) {
	var req struct {
		Amount   int64  `json:"amount" binding:"required"`
		Currency string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	balance, err := h.wallet.TopUp(c.Request.Context(), middleware.ActorFrom(c), req.Amount, currency)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.wallet.Balance(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *WalletHandler) Transactions(c *gin.Context) {
	txns, err := h.wallet.Transactions(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// Hold escrows the fee for a parcel the actor is paying for.
func (h *WalletHandler) Hold(c *gin.Context) {
	balance, err := h.wallet.Hold(c.Request.Context(), middleware.ActorFrom(c), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "payment_status": "held"})
}
