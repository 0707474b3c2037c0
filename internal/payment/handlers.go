package payment

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/luxury-haiti/backend-payments/internal/common"
)

// Handler exposes HTTP endpoints for session creation and verification.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Session creates a hosted checkout session and returns its redirect URL.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidRequest, "invalid body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidRequest, "request validation failed", map[string]any{"error": err.Error()})
			return
		}
	}
	result, err := h.Svc.CreateSession(r.Context(), req)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, result)
}

// Verify reports the gateway-side status of a payment by order reference.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	orderID := r.URL.Query().Get("order_id")
	result, err := h.Svc.Verify(r.Context(), orderID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, result)
}
