package http

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nan-tic/facturae-b2brouter/internal/application/dto"
	"github.com/nan-tic/facturae-b2brouter/internal/application/routing"
	"github.com/nan-tic/facturae-b2brouter/internal/domain"
)

// WebhookHandler recibe las notificaciones push de cambio de estado de
// B2BRouter.
type WebhookHandler struct {
	uc *routing.ApplyNotificationUseCase
	// token secreto compartido; vacío desactiva la verificación (el webhook
	// original no autenticaba la fuente).
	token string
}

// NewWebhookHandler construye el handler.
func NewWebhookHandler(uc *routing.ApplyNotificationUseCase, token string) *WebhookHandler {
	return &WebhookHandler{uc: uc, token: token}
}

// InvoiceState aplica una notificación {"invoice_id": ..., "state": ...}.
// GET|POST|PUT /b2brouter
//
// Una factura desconocida responde 405, el mismo código que devolvía el
// webhook original y que B2BRouter ya interpreta como rechazo.
func (h *WebhookHandler) InvoiceState(c *fiber.Ctx) error {
	if h.token != "" {
		got := c.Get("X-Webhook-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code: "UNAUTHORIZED", Message: "token de webhook inválido"})
		}
	}

	var in dto.StateNotification
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	err := h.uc.Apply(c.Context(), in.InvoiceID.String(), in.State)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusMethodNotAllowed).JSON(dto.ErrorResponse{
				Code: "UNKNOWN_INVOICE", Message: "ninguna factura con ese id B2BRouter"})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code: "VALIDATION", Message: "invoice_id y state son obligatorios"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}
