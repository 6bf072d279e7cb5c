// README: Route table; all business routes sit behind the identity middleware.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/http/handlers"
	"courier/internal/http/middleware"
)

// NewRouter wires the API surface. Every route under /api requires an
// authenticated actor; /health does not.
func NewRouter(ph *handlers.ParcelHandler, th *handlers.TripHandler, wh *handlers.WalletHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.Identity())

	parcels := api.Group("/parcels")
	{
		parcels.POST("", ph.Create)
		parcels.GET("/mine", ph.ListMine)
		parcels.GET("/:code", ph.Get)
		parcels.PUT("/:code", ph.Update)
		parcels.DELETE("/:code", ph.Delete)
		parcels.GET("/:code/matches", ph.Matches)
		parcels.POST("/:code/pay", wh.Hold)
		parcels.POST("/:code/accept", ph.Accept)
		parcels.POST("/:code/pickup", ph.Pickup)
		parcels.POST("/:code/track", ph.Track)
		parcels.POST("/:code/deliver", ph.Deliver)
		parcels.POST("/:code/confirm", ph.Confirm)
		parcels.POST("/:code/dispute", ph.Dispute)
	}

	trips := api.Group("/trips")
	{
		trips.POST("", th.Create)
		trips.GET("/mine", th.ListMine)
		trips.GET("/:code", th.Get)
		trips.POST("/:code/cancel", th.Cancel)
		trips.GET("/:code/matches", th.Matches)
	}

	walletGroup := api.Group("/wallet")
	{
		walletGroup.POST("/topup", wh.TopUp)
		walletGroup.GET("/balance", wh.Balance)
		walletGroup.GET("/transactions", wh.Transactions)
	}

	return r
}
