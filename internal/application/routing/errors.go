package routing

import "fmt"

// SubmissionTransportError fallo de red durante el import (conexión, DNS,
// timeout). No se escribió ningún estado local.
type SubmissionTransportError struct {
	InvoiceNumber string
	Err           error
}

func (e *SubmissionTransportError) Error() string {
	return fmt.Sprintf("error de envío a B2BRouter de la factura %s: %v",
		e.InvoiceNumber, e.Err)
}

func (e *SubmissionTransportError) Unwrap() error { return e.Err }

// SubmissionRejectedError B2BRouter respondió al import con un estado distinto
// de 200/201.
type SubmissionRejectedError struct {
	InvoiceNumber string
	StatusCode    int
	Body          string
}

func (e *SubmissionRejectedError) Error() string {
	return fmt.Sprintf("B2BRouter rechazó la factura %s (estado %d): %s",
		e.InvoiceNumber, e.StatusCode, e.Body)
}

// ReconciliationFetchError el listado remoto falló en alguna página; la pasada
// completa se aborta sin escribir nada.
type ReconciliationFetchError struct {
	Offset     int
	StatusCode int
	Body       string
}

func (e *ReconciliationFetchError) Error() string {
	return fmt.Sprintf("listado B2BRouter falló en offset %d (estado %d): %s",
		e.Offset, e.StatusCode, e.Body)
}
