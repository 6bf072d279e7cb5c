// README: Trip handlers: create/get/cancel plus the symmetric match query.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courier/internal/http/middleware"
	"courier/internal/modules/match"
	"courier/internal/modules/trip"
	"courier/internal/types"
)

type TripHandler struct {
	trips   *trip.Service
	matcher *match.Service
}

func NewTripHandler(trips *trip.Service, matcher *match.Service) *TripHandler {
	return &TripHandler{trips: trips, matcher: matcher}
}

type tripReq struct {
	Origin      endpointReq `json:"origin" binding:"required"`
	Destination endpointReq `json:"destination" binding:"required"`
	DepartureAt time.Time   `json:"departure_at" binding:"required"`
	Capacity    int         `json:"capacity" binding:"required"`
	Price       int64       `json:"price"`
	Currency    string      `json:"currency"`
}

func (h *TripHandler) Create(c *gin.Context) {
	var req tripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	t, err := h.trips.Create(c.Request.Context(), middleware.ActorFrom(c), trip.CreateCommand{
		Origin:      req.Origin.toEndpoint(),
		Destination: req.Destination.toEndpoint(),
		DepartureAt: req.DepartureAt,
		Capacity:    req.Capacity,
		Price:       types.Money{Amount: req.Price, Currency: currency},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tripView(t))
}

func (h *TripHandler) Get(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tripView(t))
}

func (h *TripHandler) ListMine(c *gin.Context) {
	ts, err := h.trips.ListMine(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(ts))
	for _, t := range ts {
		out = append(out, tripView(t))
	}
	c.JSON(http.StatusOK, gin.H{"trips": out})
}

func (h *TripHandler) Cancel(c *gin.Context) {
	if err := h.trips.Cancel(c.Request.Context(), middleware.ActorFrom(c), c.Param("code")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(trip.StatusCancelled)})
}

func (h *TripHandler) Matches(c *gin.Context) {
	candidates, err := h.matcher.FindParcelsForTrip(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": candidates})
}

func tripView(t *trip.Trip) gin.H {
	return gin.H{
		"code":             t.Code,
		"traveller_id":     t.TravellerID,
		"origin_city":      t.Origin.City,
		"dest_city":        t.Destination.City,
		"departure_at":     t.DepartureAt,
		"capacity":         t.Capacity,
		"spare_capacity":   t.SpareCapacity(),
		"price":            t.Price.Amount,
		"currency":         t.Price.Currency,
		"status":           t.Status,
		"accepted_parcels": t.AcceptedParcels,
	}
}
