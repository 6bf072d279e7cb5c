// README: Shared handler helpers: service error → HTTP status mapping and DTOs.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/parcel"
	"courier/internal/modules/trip"
	"courier/internal/modules/user"
	"courier/internal/modules/wallet"
	"courier/internal/types"
)

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, parcel.ErrBadRequest),
		errors.Is(err, trip.ErrBadRequest),
		errors.Is(err, wallet.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, parcel.ErrNotFound),
		errors.Is(err, trip.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, wallet.ErrNoWallet):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, parcel.ErrForbidden),
		errors.Is(err, trip.ErrForbidden),
		errors.Is(err, wallet.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, wallet.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, parcel.ErrConflict),
		errors.Is(err, parcel.ErrTripClosed),
		errors.Is(err, parcel.ErrTripFull),
		errors.Is(err, parcel.ErrOTPMissing),
		errors.Is(err, parcel.ErrOTPExpired),
		errors.Is(err, parcel.ErrOTPMismatch),
		errors.Is(err, trip.ErrConflict),
		errors.Is(err, trip.ErrHasParcels),
		errors.Is(err, wallet.ErrWrongPayer),
		errors.Is(err, wallet.ErrWrongPaymentState),
		errors.Is(err, wallet.ErrNoTraveller):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type endpointReq struct {
	City    string  `json:"city" binding:"required"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (e endpointReq) toEndpoint() types.Endpoint {
	return types.Endpoint{
		City:    e.City,
		Address: e.Address,
		Point:   types.Point{Lat: e.Lat, Lng: e.Lng},
	}
}
