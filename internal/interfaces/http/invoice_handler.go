package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nan-tic/facturae-b2brouter/internal/application/dto"
	"github.com/nan-tic/facturae-b2brouter/internal/application/routing"
	"github.com/nan-tic/facturae-b2brouter/internal/domain"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/facturae"
)

// InvoiceHandler expone las operaciones de enrutado para el anfitrión: envío
// manual de una factura y disparo manual de la reconciliación.
type InvoiceHandler struct {
	submit    *routing.SubmitInvoiceUseCase
	reconcile *routing.ReconcileStatesUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(submit *routing.SubmitInvoiceUseCase, reconcile *routing.ReconcileStatesUseCase) *InvoiceHandler {
	return &InvoiceHandler{submit: submit, reconcile: reconcile}
}

// Send importa la factura en B2BRouter.
// POST /api/invoices/:id/facturae/send
func (h *InvoiceHandler) Send(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "id requerido"})
	}
	var in dto.SubmitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}

	res, err := h.submit.Submit(c.Context(), id, facturae.Service(in.Service))
	if err != nil {
		var futureErr *facturae.FutureDateError
		var rejectedErr *routing.SubmissionRejectedError
		var transportErr *routing.SubmissionTransportError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Code: "NOT_FOUND", Message: "factura no encontrada"})
		case errors.Is(err, domain.ErrAlreadySubmitted):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code: "ALREADY_SUBMITTED", Message: domain.ErrAlreadySubmitted.Error()})
		case errors.Is(err, domain.ErrNoFacturae):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code: "NO_FACTURAE", Message: domain.ErrNoFacturae.Error()})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code: "VALIDATION", Message: "servicio facturae no aplicable"})
		case errors.As(err, &futureErr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Code: "FUTURE_DATE", Message: futureErr.Error()})
		case errors.As(err, &rejectedErr):
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Code: "REMOTE_REJECTED", Message: rejectedErr.Error()})
		case errors.As(err, &transportErr):
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Code: "REMOTE_UNREACHABLE", Message: transportErr.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "INTERNAL", Message: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SubmitResponse{
		B2BRouterID:    res.ID,
		B2BRouterState: res.State,
	})
}

// Reconcile ejecuta una pasada de reconciliación y devuelve el resumen.
// POST /api/reconcile
func (h *InvoiceHandler) Reconcile(c *fiber.Ctx) error {
	summary, err := h.reconcile.Run(c.Context())
	if err != nil {
		var fetchErr *routing.ReconciliationFetchError
		if errors.As(err, &fetchErr) {
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Code: "REMOTE_LIST_FAILED", Message: fetchErr.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "INTERNAL", Message: err.Error()})
	}

	out := dto.ReconcileResponse{
		DateFrom:       summary.DateFrom,
		DateTo:         summary.DateTo,
		Scanned:        summary.Scanned,
		Matched:        summary.Matched,
		SendsTriggered: summary.SendsTriggered,
	}
	for _, f := range summary.SendFailures {
		out.SendFailures = append(out.SendFailures, dto.SendFailure{
			Invoice:     f.InvoiceNumber,
			B2BRouterID: f.B2BRouterID,
			Error:       f.Err.Error(),
		})
	}
	return c.JSON(out)
}
