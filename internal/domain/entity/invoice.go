package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nan-tic/facturae-b2brouter/internal/domain/facturae"
)

// Estados B2BRouter conocidos. El conjunto completo de estados lo define el
// servicio remoto; localmente solo el estado "new" tiene semántica propia
// (dispara el reenvío durante la reconciliación).
const (
	B2BStateNew = "new"
)

// Invoice representa la cabecera de una factura del sistema contable anfitrión,
// con los campos que este módulo añade para el enrutado por B2BRouter.
//
// El ciclo de vida de la factura (borrador, validación, contabilización) es
// responsabilidad del anfitrión; aquí solo se leen sus datos y se mutan los
// campos B2BRouter.
type Invoice struct {
	ID          string
	Number      string // nombre visible de la factura (rec_name)
	Party       string
	InvoiceDate time.Time // solo fecha; entrada de la regla de fecha futura
	NetTotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	GrandTotal  decimal.Decimal

	// Servicio de envío de factura electrónica configurado para esta factura.
	// Vacío = usar el servicio por defecto de la configuración.
	FacturaeService facturae.Service

	// Facturae es el documento XSIG firmado, opaco para este módulo.
	Facturae     []byte
	FacturaeSent bool

	// B2BRouterID se asigna una sola vez en el primer import correcto y no
	// vuelve a cambiar. Vacío = la factura es invisible para la reconciliación
	// y para el webhook.
	B2BRouterID    string
	B2BRouterState string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Routed indica si la factura ya fue importada en B2BRouter.
func (i *Invoice) Routed() bool {
	return i.B2BRouterID != ""
}
