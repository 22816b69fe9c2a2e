package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nan-tic/facturae-b2brouter/internal/domain/entity"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/repository"
	"github.com/nan-tic/facturae-b2brouter/internal/infrastructure/b2brouter"
	"github.com/nan-tic/facturae-b2brouter/pkg/logger"
)

// pageSize tamaño de página fijo del listado remoto.
const pageSize = 500

// ReconcileOptions opciones de la pasada de reconciliación.
type ReconcileOptions struct {
	// LookbackDays ventana hacia atrás del filtro de fechas (por defecto 30).
	LookbackDays int
	// DateFrom / DateTo anulan la ventana calculada (escotilla operativa).
	DateFrom time.Time
	DateTo   time.Time
	// Now reloj inyectable. nil = time.Now.
	Now func() time.Time
}

// SendFailure fallo del disparo de envío de una factura en estado "new".
type SendFailure struct {
	InvoiceNumber string
	B2BRouterID   string
	Err           error
}

// Summary resultado de una pasada de reconciliación. Los fallos de disparo de
// envío no abortan la pasada ni bloquean la escritura de estados, pero se
// recogen aquí en lugar de descartarse en silencio.
type Summary struct {
	DateFrom       time.Time
	DateTo         time.Time
	Scanned        int // facturas remotas vistas en el escaneo paginado
	Matched        int // facturas locales encontradas por id remoto
	SendsTriggered int
	SendFailures   []SendFailure
}

// ReconcileStatesUseCase sincroniza los estados locales con el listado remoto:
// escanea las facturas B2BRouter modificadas dentro de la ventana, actualiza
// las facturas locales que coincidan y dispara el envío de las que siguen en
// estado "new".
type ReconcileStatesUseCase struct {
	repo   repository.InvoiceRepository
	router b2brouter.Router
	opts   ReconcileOptions
	log    *logger.Logger
}

// NewReconcileStatesUseCase construye el caso de uso.
func NewReconcileStatesUseCase(repo repository.InvoiceRepository, router b2brouter.Router, opts ReconcileOptions, log *logger.Logger) *ReconcileStatesUseCase {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 30
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ReconcileStatesUseCase{repo: repo, router: router, opts: opts, log: log}
}

// Run ejecuta una pasada completa. Cualquier fallo del listado remoto aborta
// la pasada entera sin escribir nada (no hay commit parcial de páginas ya
// vistas); los estados solo se persisten al final, en una transacción.
func (uc *ReconcileStatesUseCase) Run(ctx context.Context) (*Summary, error) {
	today := uc.opts.Now()
	dateFrom := today.AddDate(0, 0, -uc.opts.LookbackDays)
	dateTo := today
	if !uc.opts.DateFrom.IsZero() {
		dateFrom = uc.opts.DateFrom
	}
	if !uc.opts.DateTo.IsZero() {
		dateTo = uc.opts.DateTo
	}

	summary := &Summary{DateFrom: dateFrom, DateTo: dateTo}

	// Escaneo paginado completo: el mapa id→estado cabe en memoria (una
	// entrada por factura remota de la ventana), las páginas no se acumulan.
	states := make(map[string]string)
	for offset := 0; ; offset += pageSize {
		page, err := uc.router.ListInvoices(ctx, b2brouter.ListQuery{
			Offset:   offset,
			Limit:    pageSize,
			DateFrom: dateFrom,
			DateTo:   dateTo,
		})
		if err != nil {
			var apiErr *b2brouter.APIError
			if errors.As(err, &apiErr) {
				return nil, &ReconciliationFetchError{
					Offset:     offset,
					StatusCode: apiErr.StatusCode,
					Body:       apiErr.Body,
				}
			}
			return nil, fmt.Errorf("reconciliación: listado en offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}
		for _, remote := range page {
			states[remote.ID] = remote.State
		}
		summary.Scanned += len(page)
	}

	if len(states) == 0 {
		uc.log.Info().Time("date_from", dateFrom).Time("date_to", dateTo).
			Msg("reconciliación sin facturas remotas en la ventana")
		return summary, nil
	}

	remoteIDs := make([]string, 0, len(states))
	for id := range states {
		remoteIDs = append(remoteIDs, id)
	}

	invoices, err := uc.repo.ListByB2BRouterIDs(ctx, remoteIDs)
	if err != nil {
		return nil, fmt.Errorf("reconciliación: consulta local por ids remotos: %w", err)
	}
	summary.Matched = len(invoices)

	changes := make([]repository.StateChange, 0, len(invoices))
	for _, inv := range invoices {
		state := states[inv.B2BRouterID]
		changes = append(changes, repository.StateChange{
			B2BRouterID: inv.B2BRouterID,
			State:       state,
		})
		if state != entity.B2BStateNew {
			continue
		}
		// Factura importada pero aún sin enviar: disparar el envío. Un fallo
		// aquí no bloquea la escritura del estado.
		if err := uc.router.SendInvoice(ctx, inv.B2BRouterID); err != nil {
			uc.log.Warn().Str("invoice", inv.Number).Str("b2brouter_id", inv.B2BRouterID).
				Err(err).Msg("fallo disparando envío de factura en estado new")
			summary.SendFailures = append(summary.SendFailures, SendFailure{
				InvoiceNumber: inv.Number,
				B2BRouterID:   inv.B2BRouterID,
				Err:           err,
			})
			continue
		}
		summary.SendsTriggered++
	}

	if err := uc.repo.UpdateB2BRouterStates(ctx, changes); err != nil {
		return nil, fmt.Errorf("reconciliación: guardado de estados: %w", err)
	}

	uc.log.Info().Int("scanned", summary.Scanned).Int("matched", summary.Matched).
		Int("sends", summary.SendsTriggered).Int("send_failures", len(summary.SendFailures)).
		Msg("pasada de reconciliación completada")
	return summary, nil
}
