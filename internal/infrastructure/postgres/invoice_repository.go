package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nan-tic/facturae-b2brouter/internal/domain/entity"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación pgx de InvoiceRepository.
type InvoiceRepo struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository construye el adaptador sobre el pool.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

const invoiceColumns = `
	id, number, party, invoice_date, net_total, tax_total, grand_total,
	facturae_service, facturae, facturae_sent,
	b2brouter_id, b2brouter_state, created_at, updated_at`

// Create persiste una factura (la usa el anfitrión y los seeds de prueba).
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	now := time.Now()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	query := `
		INSERT INTO invoices (id, number, party, invoice_date, net_total, tax_total, grand_total,
			facturae_service, facturae, facturae_sent, b2brouter_id, b2brouter_state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.pool.Exec(ctx, query,
		invoice.ID, invoice.Number, invoice.Party, invoice.InvoiceDate,
		invoice.NetTotal, invoice.TaxTotal, invoice.GrandTotal,
		string(invoice.FacturaeService), invoice.Facturae, invoice.FacturaeSent,
		nullIfEmpty(invoice.B2BRouterID), nullIfEmpty(invoice.B2BRouterState),
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("número de factura duplicado: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por id local. Devuelve (nil, nil) si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

// GetByB2BRouterID obtiene la factura con el id remoto dado. Devuelve
// (nil, nil) si ninguna factura local lo tiene.
func (r *InvoiceRepo) GetByB2BRouterID(ctx context.Context, remoteID string) (*entity.Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+invoiceColumns+` FROM invoices WHERE b2brouter_id = $1`, remoteID)
	return scanInvoice(row)
}

// ListByB2BRouterIDs devuelve en una sola consulta las facturas cuyos ids
// remotos aparecen en remoteIDs.
func (r *InvoiceRepo) ListByB2BRouterIDs(ctx context.Context, remoteIDs []string) ([]*entity.Invoice, error) {
	if len(remoteIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT`+invoiceColumns+` FROM invoices WHERE b2brouter_id = ANY($1)`, remoteIDs)
	if err != nil {
		return nil, fmt.Errorf("list invoices by b2brouter ids: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// SetSubmissionResult escribe id remoto, estado y flag de envío en una sola
// sentencia: o quedan los tres o ninguno. El WHERE protege contra una doble
// asignación del id remoto.
func (r *InvoiceRepo) SetSubmissionResult(ctx context.Context, id, remoteID, state string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET b2brouter_id    = $2,
		    b2brouter_state = $3,
		    facturae_sent   = TRUE,
		    updated_at      = now()
		WHERE id = $1 AND b2brouter_id IS NULL`,
		id, remoteID, nullIfEmpty(state))
	if err != nil {
		return fmt.Errorf("set submission result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set submission result: factura %s inexistente o ya importada", id)
	}
	return nil
}

// UpdateB2BRouterState sobreescribe el estado remoto de una factura.
func (r *InvoiceRepo) UpdateB2BRouterState(ctx context.Context, id, state string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE invoices SET b2brouter_state = $2, updated_at = now() WHERE id = $1`,
		id, state)
	if err != nil {
		return fmt.Errorf("update b2brouter state: %w", err)
	}
	return nil
}

// UpdateB2BRouterStates aplica todos los cambios de estado de una pasada de
// reconciliación en una única transacción, con un batch pgx.
func (r *InvoiceRepo) UpdateB2BRouterStates(ctx context.Context, changes []repository.StateChange) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, ch := range changes {
		batch.Queue(`
			UPDATE invoices SET b2brouter_state = $2, updated_at = now()
			WHERE b2brouter_id = $1`,
			ch.B2BRouterID, ch.State)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("batch update states: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rowScanner cubre pgx.Row y pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var service string
	var remoteID, remoteState *string
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.Party, &inv.InvoiceDate,
		&inv.NetTotal, &inv.TaxTotal, &inv.GrandTotal,
		&service, &inv.Facturae, &inv.FacturaeSent,
		&remoteID, &remoteState, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	inv.FacturaeService = facturaeService(service)
	inv.B2BRouterID = derefStr(remoteID)
	inv.B2BRouterState = derefStr(remoteState)
	return &inv, nil
}
