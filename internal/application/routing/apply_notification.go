package routing

import (
	"context"
	"fmt"

	"github.com/nan-tic/facturae-b2brouter/internal/domain"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/repository"
	"github.com/nan-tic/facturae-b2brouter/pkg/logger"
)

// ApplyNotificationUseCase aplica una notificación push de cambio de estado:
// la vía alternativa a la reconciliación, empujada por B2BRouter vía webhook.
//
// No hay clave de idempotencia: notificaciones repetidas son no-ops inocuos y
// la última recibida gana, sin garantía de orden frente a la reconciliación.
type ApplyNotificationUseCase struct {
	repo repository.InvoiceRepository
	log  *logger.Logger
}

// NewApplyNotificationUseCase construye el caso de uso.
func NewApplyNotificationUseCase(repo repository.InvoiceRepository, log *logger.Logger) *ApplyNotificationUseCase {
	return &ApplyNotificationUseCase{repo: repo, log: log}
}

// Apply sobreescribe el estado B2BRouter de la factura local con id remoto
// remoteID. Devuelve domain.ErrNotFound si ninguna factura local tiene ese id.
func (uc *ApplyNotificationUseCase) Apply(ctx context.Context, remoteID, state string) error {
	if remoteID == "" || state == "" {
		return domain.ErrInvalidInput
	}

	inv, err := uc.repo.GetByB2BRouterID(ctx, remoteID)
	if err != nil {
		return fmt.Errorf("buscar factura por id B2BRouter %s: %w", remoteID, err)
	}
	if inv == nil {
		return domain.ErrNotFound
	}

	if err := uc.repo.UpdateB2BRouterState(ctx, inv.ID, state); err != nil {
		return fmt.Errorf("actualizar estado de %s: %w", inv.Number, err)
	}

	uc.log.Info().Str("invoice", inv.Number).Str("b2brouter_id", remoteID).
		Str("state", state).Msg("estado actualizado por notificación webhook")
	return nil
}
