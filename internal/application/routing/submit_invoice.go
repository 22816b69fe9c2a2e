package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nan-tic/facturae-b2brouter/internal/domain"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/facturae"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/repository"
	"github.com/nan-tic/facturae-b2brouter/internal/infrastructure/b2brouter"
	"github.com/nan-tic/facturae-b2brouter/pkg/logger"
)

// SubmitOptions opciones del caso de uso de envío.
type SubmitOptions struct {
	// DefaultService servicio por defecto cuando la factura no pide uno
	// explícito.
	DefaultService facturae.Service
	// SendAfterImport pide a B2BRouter el envío inmediato tras el import
	// (query flag, no una segunda llamada).
	SendAfterImport bool
	// Now reloj inyectable para la regla de fecha futura. nil = time.Now.
	Now func() time.Time
}

// SubmitInvoiceUseCase importa el documento facturae firmado de una factura en
// B2BRouter y registra el id y estado remotos asignados.
type SubmitInvoiceUseCase struct {
	repo   repository.InvoiceRepository
	router b2brouter.Router
	opts   SubmitOptions
	log    *logger.Logger
}

// NewSubmitInvoiceUseCase construye el caso de uso.
func NewSubmitInvoiceUseCase(repo repository.InvoiceRepository, router b2brouter.Router, opts SubmitOptions, log *logger.Logger) *SubmitInvoiceUseCase {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SubmitInvoiceUseCase{repo: repo, router: router, opts: opts, log: log}
}

// Submit envía la factura indicada a B2BRouter. requested permite forzar el
// servicio desde la petición; vacío usa el de la factura o el configurado.
//
// La regla de fecha futura se evalúa ANTES de cualquier llamada de red, y los
// campos B2BRouter solo se escriben tras una respuesta correcta, los tres en
// una misma sentencia.
func (uc *SubmitInvoiceUseCase) Submit(ctx context.Context, invoiceID string, requested facturae.Service) (*b2brouter.ImportResult, error) {
	if !requested.Valid() {
		return nil, domain.ErrInvalidInput
	}

	inv, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("consultar factura %s: %w", invoiceID, err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.Routed() {
		// El id remoto se asigna una sola vez; un segundo import duplicaría
		// la factura en B2BRouter.
		return nil, domain.ErrAlreadySubmitted
	}
	if len(inv.Facturae) == 0 {
		return nil, domain.ErrNoFacturae
	}

	if requested == facturae.ServiceNone {
		requested = inv.FacturaeService
	}
	service := facturae.Resolve(requested, uc.opts.DefaultService)
	if err := facturae.CheckSendDate(inv.Number, inv.InvoiceDate, uc.opts.Now(), service); err != nil {
		return nil, err
	}
	if service != facturae.ServiceB2BRouter {
		return nil, domain.ErrInvalidInput
	}

	res, err := uc.router.ImportInvoice(ctx, inv.Facturae, inv.InvoiceDate, uc.opts.SendAfterImport)
	if err != nil {
		var apiErr *b2brouter.APIError
		if errors.As(err, &apiErr) {
			uc.log.Warn().Str("invoice", inv.Number).Int("status", apiErr.StatusCode).
				Msg("import rechazado por B2BRouter")
			return nil, &SubmissionRejectedError{
				InvoiceNumber: inv.Number,
				StatusCode:    apiErr.StatusCode,
				Body:          apiErr.Body,
			}
		}
		uc.log.Warn().Str("invoice", inv.Number).Err(err).
			Msg("error de transporte enviando a B2BRouter")
		return nil, &SubmissionTransportError{InvoiceNumber: inv.Number, Err: err}
	}

	if err := uc.repo.SetSubmissionResult(ctx, inv.ID, res.ID, res.State); err != nil {
		return nil, fmt.Errorf("persistir resultado de import de %s: %w", inv.Number, err)
	}

	uc.log.Info().Str("invoice", inv.Number).Str("b2brouter_id", res.ID).
		Str("state", res.State).Msg("factura importada en B2BRouter")
	return res, nil
}
