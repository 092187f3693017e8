package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"parking-gate-backend/internal/admission"
	"parking-gate-backend/internal/dispatch"
	"parking-gate-backend/internal/gate"
	"parking-gate-backend/internal/ledger"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	admission  *admission.Controller
	gate       *gate.Controller
	dispatcher *dispatch.Dispatcher
	db         *gorm.DB
	webpush    *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(ctrl *admission.Controller, gateCtrl *gate.Controller, d *dispatch.Dispatcher, db *gorm.DB, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		admission:  ctrl,
		gate:       gateCtrl,
		dispatcher: d,
		db:         db,
		webpush:    webpushOptions,
	}
}

// statusFor maps a typed result to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, admission.ErrMissingPlate),
		errors.Is(err, admission.ErrMissingDocumentID),
		errors.Is(err, admission.ErrMissingDate):
		return http.StatusBadRequest
	case errors.Is(err, admission.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateEntry),
		errors.Is(err, ledger.ErrCapacityExceeded),
		errors.Is(err, gate.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, gate.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, gate.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// messageFor picks the user-visible message for a failed operation. Internal
// causes are already logged at the controller boundary and never leaked.
func messageFor(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
