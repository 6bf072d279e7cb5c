// README: Parcel handlers: create/update/delete, lifecycle verbs, OTP confirmation,
// tracking, and trip matching.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/http/middleware"
	"courier/internal/modules/match"
	"courier/internal/modules/parcel"
	"courier/internal/types"
)

type ParcelHandler struct {
	parcels *parcel.Service
	matcher *match.Service
}

func NewParcelHandler(parcels *parcel.Service, matcher *match.Service) *ParcelHandler {
	return &ParcelHandler{parcels: parcels, matcher: matcher}
}

type parcelReq struct {
	Origin          endpointReq `json:"origin" binding:"required"`
	Destination     endpointReq `json:"destination" binding:"required"`
	ReceiverName    string      `json:"receiver_name" binding:"required"`
	ReceiverContact string      `json:"receiver_contact"`
	Fee             int64       `json:"fee"`
	Currency        string      `json:"currency"`
	Payer           string      `json:"payer" binding:"required"`
}

func (r parcelReq) toCommand() parcel.CreateCommand {
	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}
	return parcel.CreateCommand{
		Origin:          r.Origin.toEndpoint(),
		Destination:     r.Destination.toEndpoint(),
		ReceiverName:    r.ReceiverName,
		ReceiverContact: r.ReceiverContact,
		Fee:             types.Money{Amount: r.Fee, Currency: currency},
		Payer:           parcel.Payer(r.Payer),
	}
}

func (h *ParcelHandler) Create(c *gin.Context) {
	var req parcelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := h.parcels.Create(c.Request.Context(), middleware.ActorFrom(c), req.toCommand())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, parcelView(p))
}

func (h *ParcelHandler) Get(c *gin.Context) {
	p, err := h.parcels.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, parcelView(p))
}

func (h *ParcelHandler) ListMine(c *gin.Context) {
	ps, err := h.parcels.ListMine(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(ps))
	for _, p := range ps {
		out = append(out, parcelView(p))
	}
	c.JSON(http.StatusOK, gin.H{"parcels": out})
}

func (h *ParcelHandler) Update(c *gin.Context) {
	var req parcelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.parcels.Update(c.Request.Context(), middleware.ActorFrom(c), c.Param("code"), req.toCommand()); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *ParcelHandler) Delete(c *gin.Context) {
	if err := h.parcels.Delete(c.Request.Context(), middleware.ActorFrom(c), c.Param("code")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ParcelHandler) Accept(c *gin.Context) {
	var req struct {
		TripCode string `json:"trip_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.parcels.Accept(c.Request.Context(), middleware.ActorFrom(c), c.Param("code"), req.TripCode); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(parcel.StatusAccepted)})
}

func (h *ParcelHandler) Pickup(c *gin.Context) {
	if err := h.parcels.Pickup(c.Request.Context(), middleware.ActorFrom(c), c.Param("code")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(parcel.StatusPickedUp)})
}

func (h *ParcelHandler) Track(c *gin.Context) {
	var req struct {
		Lat  float64 `json:"lat"`
		Lng  float64 `json:"lng"`
		Note string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.parcels.Track(c.Request.Context(), middleware.ActorFrom(c), c.Param("code"),
		types.Point{Lat: req.Lat, Lng: req.Lng}, req.Note)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "tracked"})
}

func (h *ParcelHandler) Deliver(c *gin.Context) {
	var req struct {
		Proof string `json:"proof"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	if err := h.parcels.Deliver(c.Request.Context(), middleware.ActorFrom(c), c.Param("code"), req.Proof); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmation pending"})
}

func (h *ParcelHandler) Confirm(c *gin.Context) {
	var req struct {
		OTP string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.parcels.Confirm(c.Request.Context(), middleware.ActorFrom(c), c.Param("code"), req.OTP); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(parcel.StatusDelivered)})
}

func (h *ParcelHandler) Dispute(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.parcels.Dispute(c.Request.Context(), middleware.ActorFrom(c), c.Param("code"), req.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(parcel.StatusDisputed)})
}

func (h *ParcelHandler) Matches(c *gin.Context) {
	candidates, err := h.matcher.FindTripsForParcel(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": candidates})
}

func parcelView(p *parcel.Parcel) gin.H {
	view := gin.H{
		"code":           p.Code,
		"sender_id":      p.SenderID,
		"status":         p.Status,
		"payment_status": p.PaymentStatus,
		"fee":            p.Fee.Amount,
		"currency":       p.Fee.Currency,
		"payer":          p.Payer,
		"origin_city":    p.Origin.City,
		"dest_city":      p.Destination.City,
		"created_at":     p.CreatedAt,
	}
	if p.TravellerID != nil {
		view["traveller_id"] = *p.TravellerID
	}
	if p.TripCode != nil {
		view["trip_code"] = *p.TripCode
	}
	if p.DeliveryProof != nil {
		view["delivery_proof"] = *p.DeliveryProof
	}
	if p.DeliveredAt != nil {
		view["delivered_at"] = *p.DeliveredAt
	}
	return view
}
