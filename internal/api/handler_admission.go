package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-gate-backend/internal/admission"
)

type validateRequest struct {
	DocumentID string `json:"docId"`
}

// Validate handles POST /api/validate.
func (h *Handler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": admission.ErrMissingDocumentID.Error()})
		return
	}

	v, err := h.dispatcher.Submit(c.Request.Context(), func(ctx context.Context) (any, error) {
		return h.admission.Validate(ctx, req.DocumentID)
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": messageFor(err)})
		return
	}

	result := v.(*admission.ValidateResult)
	c.JSON(http.StatusOK, gin.H{
		"message": result.Message,
		"data":    result.Driver,
		"action":  result.Action,
	})
}

// entryRequest accepts the vehicle fields either flat or nested under "data",
// matching what the kiosk frontend sends after a validation round-trip.
type entryRequest struct {
	admission.VehicleData
	Data *admission.VehicleData `json:"data"`
}

func (r *entryRequest) vehicleData() admission.VehicleData {
	if r.Data != nil && r.Data.PlateNumber != "" {
		return *r.Data
	}
	return r.VehicleData
}

// VehicleEntry handles POST /api/vehicle-entry.
func (h *Handler) VehicleEntry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": admission.ErrMissingPlate.Error()})
		return
	}

	v, err := h.dispatcher.Submit(c.Request.Context(), func(ctx context.Context) (any, error) {
		return h.admission.Admit(ctx, req.vehicleData())
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": messageFor(err)})
		return
	}

	result := v.(*admission.AdmitResult)
	c.JSON(http.StatusCreated, gin.H{
		"message":       result.Message,
		"plateNumber":   result.PlateNumber,
		"transactionId": result.TransactionID,
	})
}

type exitRequest struct {
	PlateNumber string `json:"plateNumber"`
	Data        *struct {
		PlateNumber string `json:"plateNumber"`
	} `json:"data"`
}

func (r *exitRequest) plate() string {
	if r.PlateNumber != "" {
		return r.PlateNumber
	}
	if r.Data != nil {
		return r.Data.PlateNumber
	}
	return ""
}

// VehicleExit handles POST /api/vehicle-exit.
func (h *Handler) VehicleExit(c *gin.Context) {
	var req exitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": admission.ErrMissingPlate.Error()})
		return
	}

	v, err := h.dispatcher.Submit(c.Request.Context(), func(ctx context.Context) (any, error) {
		return h.admission.Release(ctx, req.plate())
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": messageFor(err)})
		return
	}

	result := v.(*admission.ReleaseResult)
	c.JSON(http.StatusOK, gin.H{
		"message":       result.Message,
		"plateNumber":   result.PlateNumber,
		"transactionId": result.TransactionID,
	})
}

// VehicleHistory handles GET /api/vehicle-history?date=YYYY-MM-DD.
func (h *Handler) VehicleHistory(c *gin.Context) {
	date := c.Query("date")

	v, err := h.dispatcher.Submit(c.Request.Context(), func(ctx context.Context) (any, error) {
		return h.admission.History(ctx, date)
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": messageFor(err)})
		return
	}

	result := v.(*admission.HistoryResult)
	c.JSON(http.StatusOK, gin.H{
		"message": result.Message,
		"data":    result.Entries,
	})
}
