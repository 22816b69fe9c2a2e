package repository

import (
	"context"

	"github.com/nan-tic/facturae-b2brouter/internal/domain/entity"
)

// StateChange par id B2BRouter → nuevo estado, para el guardado masivo de la
// reconciliación.
type StateChange struct {
	B2BRouterID string
	State       string
}

// InvoiceRepository define el puerto de persistencia sobre las facturas del
// anfitrión. Este módulo nunca borra facturas; solo lee y muta los campos
// B2BRouter.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByB2BRouterID(ctx context.Context, remoteID string) (*entity.Invoice, error)
	// ListByB2BRouterIDs devuelve en una sola consulta las facturas locales
	// cuyos ids remotos aparecen en remoteIDs.
	ListByB2BRouterIDs(ctx context.Context, remoteIDs []string) ([]*entity.Invoice, error)
	// SetSubmissionResult persiste b2brouter_id, b2brouter_state y
	// facturae_sent en una sola sentencia: o se escriben los tres campos o
	// ninguno.
	SetSubmissionResult(ctx context.Context, id, remoteID, state string) error
	// UpdateB2BRouterState sobreescribe el estado de una factura (webhook).
	UpdateB2BRouterState(ctx context.Context, id, state string) error
	// UpdateB2BRouterStates aplica todos los cambios de estado de una pasada
	// de reconciliación en una única transacción.
	UpdateB2BRouterStates(ctx context.Context, changes []StateChange) error
}
