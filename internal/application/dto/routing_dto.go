package dto

import (
	"encoding/json"
	"time"
)

// StateNotification cuerpo de la notificación webhook de B2BRouter.
// invoice_id puede llegar como número o como string JSON.
type StateNotification struct {
	InvoiceID json.Number `json:"invoice_id"`
	State     string      `json:"state"`
}

// SubmitRequest cuerpo opcional del envío manual de una factura.
type SubmitRequest struct {
	// Service fuerza el servicio facturae ("b2brouter"); vacío usa el de la
	// factura o el configurado por defecto.
	Service string `json:"service"`
}

// SubmitResponse resultado del import en B2BRouter.
type SubmitResponse struct {
	B2BRouterID    string `json:"b2brouter_id"`
	B2BRouterState string `json:"b2brouter_state"`
}

// SendFailure fallo individual del disparo de envío durante la reconciliación.
type SendFailure struct {
	Invoice     string `json:"invoice"`
	B2BRouterID string `json:"b2brouter_id"`
	Error       string `json:"error"`
}

// ReconcileResponse resumen de una pasada de reconciliación.
type ReconcileResponse struct {
	DateFrom       time.Time     `json:"date_from"`
	DateTo         time.Time     `json:"date_to"`
	Scanned        int           `json:"scanned"`
	Matched        int           `json:"matched"`
	SendsTriggered int           `json:"sends_triggered"`
	SendFailures   []SendFailure `json:"send_failures,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
