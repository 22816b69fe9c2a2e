package routing_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nan-tic/facturae-b2brouter/internal/domain/entity"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/facturae"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/repository"
	"github.com/nan-tic/facturae-b2brouter/internal/infrastructure/b2brouter"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria para los puertos de los casos de uso
// ──────────────────────────────────────────────────────────────────────────────

type fakeRepo struct {
	invoices map[string]*entity.Invoice // por id local

	submissionCalls int
	bulkSaves       int
	savedChanges    []repository.StateChange
}

func newFakeRepo(invoices ...*entity.Invoice) *fakeRepo {
	r := &fakeRepo{invoices: make(map[string]*entity.Invoice)}
	for _, inv := range invoices {
		r.invoices[inv.ID] = inv
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, inv *entity.Invoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	return r.invoices[id], nil
}

func (r *fakeRepo) GetByB2BRouterID(_ context.Context, remoteID string) (*entity.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.B2BRouterID == remoteID {
			return inv, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListByB2BRouterIDs(_ context.Context, remoteIDs []string) ([]*entity.Invoice, error) {
	wanted := make(map[string]bool, len(remoteIDs))
	for _, id := range remoteIDs {
		wanted[id] = true
	}
	var out []*entity.Invoice
	for _, inv := range r.invoices {
		if inv.B2BRouterID != "" && wanted[inv.B2BRouterID] {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeRepo) SetSubmissionResult(_ context.Context, id, remoteID, state string) error {
	r.submissionCalls++
	inv := r.invoices[id]
	inv.B2BRouterID = remoteID
	inv.B2BRouterState = state
	inv.FacturaeSent = true
	return nil
}

func (r *fakeRepo) UpdateB2BRouterState(_ context.Context, id, state string) error {
	r.invoices[id].B2BRouterState = state
	return nil
}

func (r *fakeRepo) UpdateB2BRouterStates(_ context.Context, changes []repository.StateChange) error {
	r.bulkSaves++
	r.savedChanges = append(r.savedChanges, changes...)
	for _, ch := range changes {
		for _, inv := range r.invoices {
			if inv.B2BRouterID == ch.B2BRouterID {
				inv.B2BRouterState = ch.State
			}
		}
	}
	return nil
}

type fakeRouter struct {
	importResult *b2brouter.ImportResult
	importErr    error
	importCalls  int
	lastDoc      []byte
	lastSendFlag bool

	pages       [][]b2brouter.RemoteInvoice // página i = offset i*500
	listErrAt   int                         // offset que falla (si listErr != nil)
	listErr     error
	listQueries []b2brouter.ListQuery

	sendCalls []string
	sendErr   map[string]error
}

func (f *fakeRouter) ImportInvoice(_ context.Context, doc []byte, _ time.Time, sendAfterImport bool) (*b2brouter.ImportResult, error) {
	f.importCalls++
	f.lastDoc = doc
	f.lastSendFlag = sendAfterImport
	if f.importErr != nil {
		return nil, f.importErr
	}
	return f.importResult, nil
}

func (f *fakeRouter) ListInvoices(_ context.Context, q b2brouter.ListQuery) ([]b2brouter.RemoteInvoice, error) {
	f.listQueries = append(f.listQueries, q)
	if f.listErr != nil && q.Offset == f.listErrAt {
		return nil, f.listErr
	}
	page := q.Offset / q.Limit
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

func (f *fakeRouter) SendInvoice(_ context.Context, remoteID string) error {
	f.sendCalls = append(f.sendCalls, remoteID)
	if err, ok := f.sendErr[remoteID]; ok {
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de datos
// ──────────────────────────────────────────────────────────────────────────────

var fixedToday = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedToday }

func testInvoice(id, number string, date time.Time) *entity.Invoice {
	return &entity.Invoice{
		ID:              id,
		Number:          number,
		Party:           "Cliente de Prueba SL",
		InvoiceDate:     date,
		NetTotal:        decimal.NewFromInt(100),
		TaxTotal:        decimal.NewFromInt(21),
		GrandTotal:      decimal.NewFromInt(121),
		FacturaeService: facturae.ServiceB2BRouter,
		Facturae:        []byte("<facturae firmada/>"),
	}
}

func routedInvoice(id, number, remoteID, state string) *entity.Invoice {
	inv := testInvoice(id, number, fixedToday.AddDate(0, 0, -5))
	inv.B2BRouterID = remoteID
	inv.B2BRouterState = state
	inv.FacturaeSent = true
	return inv
}
