package facturae

import (
	"fmt"
	"time"
)

// Service identifica el servicio de envío de factura electrónica. Es un
// conjunto cerrado: en lugar de un registro dinámico de opciones (como hace el
// módulo original del anfitrión), los servicios soportados se verifican en
// compilación.
type Service string

const (
	// ServiceNone indica que la factura no se enruta por ningún servicio.
	ServiceNone Service = ""
	// ServiceB2BRouter enruta la factura por la API REST de B2BRouter.
	ServiceB2BRouter Service = "b2brouter"
)

// Valid indica si s es uno de los servicios soportados.
func (s Service) Valid() bool {
	switch s {
	case ServiceNone, ServiceB2BRouter:
		return true
	}
	return false
}

// Resolve determina el servicio efectivo para una factura: el solicitado
// explícitamente si existe, o el configurado por defecto.
func Resolve(requested, configured Service) Service {
	if requested != ServiceNone {
		return requested
	}
	return configured
}

// FutureDateError se produce al intentar generar o enviar por B2BRouter una
// factura con fecha posterior a hoy. B2BRouter no acepta facturas adelantadas.
type FutureDateError struct {
	InvoiceNumber string
	InvoiceDate   time.Time
}

func (e *FutureDateError) Error() string {
	return fmt.Sprintf(
		"factura %s: fecha %s posterior a hoy, B2BRouter no admite facturas con fecha futura",
		e.InvoiceNumber, e.InvoiceDate.Format("2006-01-02"))
}

// CheckSendDate aplica la regla de negocio de fecha futura: si el servicio
// efectivo es B2BRouter y la fecha de la factura es estrictamente posterior a
// today, devuelve FutureDateError. Debe ejecutarse antes de cualquier llamada
// de red.
func CheckSendDate(number string, invoiceDate, today time.Time, service Service) error {
	if service != ServiceB2BRouter {
		return nil
	}
	if dateOnly(invoiceDate).After(dateOnly(today)) {
		return &FutureDateError{InvoiceNumber: number, InvoiceDate: invoiceDate}
	}
	return nil
}

// dateOnly descarta la parte horaria: la regla compara fechas, no instantes.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
