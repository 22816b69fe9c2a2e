package routing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nan-tic/facturae-b2brouter/internal/application/routing"
	"github.com/nan-tic/facturae-b2brouter/internal/domain"
	"github.com/nan-tic/facturae-b2brouter/internal/domain/facturae"
	"github.com/nan-tic/facturae-b2brouter/internal/infrastructure/b2brouter"
	"github.com/nan-tic/facturae-b2brouter/pkg/logger"
)

func newSubmitUC(repo *fakeRepo, router *fakeRouter, opts routing.SubmitOptions) *routing.SubmitInvoiceUseCase {
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	return routing.NewSubmitInvoiceUseCase(repo, router, opts, logger.NewNop())
}

// Una factura con fecha futura y servicio b2brouter debe rechazarse ANTES de
// cualquier llamada de red.
func TestSubmit_FechaFuturaFallaSinLlamadaDeRed(t *testing.T) {
	inv := testInvoice("inv-1", "FAC-0001", fixedToday.AddDate(0, 0, 1))
	repo := newFakeRepo(inv)
	router := &fakeRouter{}

	uc := newSubmitUC(repo, router, routing.SubmitOptions{})
	_, err := uc.Submit(context.Background(), "inv-1", facturae.ServiceB2BRouter)

	var fdErr *facturae.FutureDateError
	require.ErrorAs(t, err, &fdErr)
	assert.Zero(t, router.importCalls, "no debe haber ninguna llamada HTTP")
	assert.False(t, inv.FacturaeSent)
	assert.Empty(t, inv.B2BRouterID)
}

// La regla de fecha futura también aplica cuando b2brouter es el servicio
// configurado por defecto, sin pedirlo explícitamente.
func TestSubmit_FechaFuturaConServicioPorDefecto(t *testing.T) {
	inv := testInvoice("inv-1", "FAC-0001", fixedToday.AddDate(0, 0, 3))
	inv.FacturaeService = facturae.ServiceNone
	repo := newFakeRepo(inv)
	router := &fakeRouter{}

	uc := newSubmitUC(repo, router, routing.SubmitOptions{
		DefaultService: facturae.ServiceB2BRouter,
	})
	_, err := uc.Submit(context.Background(), "inv-1", facturae.ServiceNone)

	var fdErr *facturae.FutureDateError
	require.ErrorAs(t, err, &fdErr)
	assert.Zero(t, router.importCalls)
}

// Import correcto: id remoto, estado y flag de envío quedan escritos y hubo
// exactamente una llamada saliente.
func TestSubmit_ImportCorrectoPersisteResultado(t *testing.T) {
	inv := testInvoice("inv-1", "FAC-0001", fixedToday.AddDate(0, 0, -1))
	repo := newFakeRepo(inv)
	router := &fakeRouter{
		importResult: &b2brouter.ImportResult{ID: "42", State: "new"},
	}

	uc := newSubmitUC(repo, router, routing.SubmitOptions{})
	res, err := uc.Submit(context.Background(), "inv-1", facturae.ServiceB2BRouter)
	require.NoError(t, err)

	assert.Equal(t, "42", res.ID)
	assert.Equal(t, 1, router.importCalls, "exactamente una llamada saliente")
	assert.Equal(t, []byte("<facturae firmada/>"), router.lastDoc,
		"el documento firmado se envía tal cual")

	assert.Equal(t, "42", inv.B2BRouterID)
	assert.Equal(t, "new", inv.B2BRouterState)
	assert.True(t, inv.FacturaeSent)
	assert.Equal(t, 1, repo.submissionCalls,
		"los tres campos se escriben en una sola operación")
}

func TestSubmit_SendAfterImportSePropaga(t *testing.T) {
	inv := testInvoice("inv-1", "FAC-0001", fixedToday)
	repo := newFakeRepo(inv)
	router := &fakeRouter{importResult: &b2brouter.ImportResult{ID: "7", State: "sending"}}

	uc := newSubmitUC(repo, router, routing.SubmitOptions{SendAfterImport: true})
	_, err := uc.Submit(context.Background(), "inv-1", facturae.ServiceB2BRouter)
	require.NoError(t, err)

	assert.True(t, router.lastSendFlag,
		"el envío inmediato va como flag del import, no como segunda llamada")
	assert.Equal(t, 1, router.importCalls)
}

// Fallo de conexión: error de transporte tipado y ningún campo modificado.
func TestSubmit_FalloDeTransporteNoEscribeNada(t *testing.T) {
	inv := testInvoice("inv-1", "FAC-0001", fixedToday.AddDate(0, 0, -1))
	repo := newFakeRepo(inv)
	router := &fakeRouter{importErr: errors.New("dial tcp: connection refused")}

	uc := newSubmitUC(repo, router, routing.SubmitOptions{})
	_, err := uc.Submit(context.Background(), "inv-1", facturae.ServiceB2BRouter)

	var trErr *routing.SubmissionTransportError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, "FAC-0001", trErr.InvoiceNumber)
	assert.Contains(t, trErr.Error(), "connection refused")

	assert.Empty(t, inv.B2BRouterID, "sin escritura parcial tras un fallo")
	assert.Empty(t, inv.B2BRouterState)
	assert.False(t, inv.FacturaeSent)
	assert.Zero(t, repo.submissionCalls)
}

// Estado HTTP no exitoso: rechazo tipado con código y cuerpo.
func TestSubmit_RechazoRemotoConEstadoYCuerpo(t *testing.T) {
	inv := testInvoice("inv-1", "FAC-0001", fixedToday.AddDate(0, 0, -1))
	repo := newFakeRepo(inv)
	router := &fakeRouter{
		importErr: &b2brouter.APIError{StatusCode: 422, Body: `{"errors":["tax id"]}`},
	}

	uc := newSubmitUC(repo, router, routing.SubmitOptions{})
	_, err := uc.Submit(context.Background(), "inv-1", facturae.ServiceB2BRouter)

	var rejErr *routing.SubmissionRejectedError
	require.ErrorAs(t, err, &rejErr)
	assert.Equal(t, 422, rejErr.StatusCode)
	assert.Contains(t, rejErr.Body, "tax id")
	assert.False(t, inv.FacturaeSent)
}

func TestSubmit_FacturaYaImportadaNoSeReenvia(t *testing.T) {
	inv := routedInvoice("inv-1", "FAC-0001", "42", "sent")
	repo := newFakeRepo(inv)
	router := &fakeRouter{}

	uc := newSubmitUC(repo, router, routing.SubmitOptions{})
	_, err := uc.Submit(context.Background(), "inv-1", facturae.ServiceB2BRouter)

	assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)
	assert.Zero(t, router.importCalls)
	assert.Equal(t, "42", inv.B2BRouterID, "el id remoto es inmutable")
}

func TestSubmit_FacturaInexistente(t *testing.T) {
	uc := newSubmitUC(newFakeRepo(), &fakeRouter{}, routing.SubmitOptions{})
	_, err := uc.Submit(context.Background(), "nope", facturae.ServiceB2BRouter)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmit_SinDocumentoFacturae(t *testing.T) {
	inv := testInvoice("inv-1", "FAC-0001", fixedToday)
	inv.Facturae = nil
	uc := newSubmitUC(newFakeRepo(inv), &fakeRouter{}, routing.SubmitOptions{})

	_, err := uc.Submit(context.Background(), "inv-1", facturae.ServiceB2BRouter)
	assert.ErrorIs(t, err, domain.ErrNoFacturae)
}

func TestSubmit_ServicioNoB2BRouterNoAplica(t *testing.T) {
	inv := testInvoice("inv-1", "FAC-0001", fixedToday)
	inv.FacturaeService = facturae.ServiceNone
	router := &fakeRouter{}
	uc := newSubmitUC(newFakeRepo(inv), router, routing.SubmitOptions{})

	_, err := uc.Submit(context.Background(), "inv-1", facturae.ServiceNone)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, router.importCalls)
}
