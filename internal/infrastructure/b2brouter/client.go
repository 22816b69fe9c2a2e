package b2brouter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ── Constantes de entorno ──────────────────────────────────────────────────────

const (
	baseURLProd    = "https://app.b2brouter.net"
	baseURLStaging = "https://app-staging.b2brouter.net"

	apiKeyHeader = "X-B2B-API-Key"

	// B2BRouter espera el documento como data URI base64 autodescriptivo,
	// con este MIME y el nombre de archivo embebido.
	dataURIMIME = "application/octet-stream"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// ImportResult factura creada por el endpoint de import de B2BRouter.
type ImportResult struct {
	ID    string // id remoto asignado; opaco para este módulo
	State string // estado inicial ("new" normalmente)
}

// RemoteInvoice una factura tal como la devuelve el listado remoto.
type RemoteInvoice struct {
	ID    string
	State string
}

// ListQuery filtros del listado paginado de facturas remotas.
type ListQuery struct {
	Offset   int
	Limit    int
	DateFrom time.Time
	DateTo   time.Time
}

// Router define el puerto de salida hacia B2BRouter. La implementación
// concreta usa la API REST; para tests se puede inyectar un fake.
type Router interface {
	// ImportInvoice sube el documento facturae firmado. docDate determina el
	// nombre de archivo (facturae-<yyyymmdd>.xsig). Con sendAfterImport la
	// factura se envía inmediatamente tras el import.
	ImportInvoice(ctx context.Context, doc []byte, docDate time.Time, sendAfterImport bool) (*ImportResult, error)
	// ListInvoices devuelve una página de facturas remotas modificadas dentro
	// de la ventana de fechas.
	ListInvoices(ctx context.Context, q ListQuery) ([]RemoteInvoice, error)
	// SendInvoice dispara el envío de una factura ya importada.
	SendInvoice(ctx context.Context, remoteID string) error
}

// ── Errores ────────────────────────────────────────────────────────────────────

// APIError respuesta HTTP de B2BRouter con estado distinto del esperado.
// Los errores de transporte (conexión, DNS, timeout) NO son APIError: llegan
// envueltos con %w desde net/http.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("b2brouter respondió %d: %s", e.StatusCode, e.Body)
}

// ── Implementación REST ────────────────────────────────────────────────────────

// Config credenciales y entorno del cliente B2BRouter.
type Config struct {
	Production bool // false = app-staging.b2brouter.net
	Account    string
	APIKey     string
}

// Client implementa Router contra la API REST de B2BRouter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	account    string
	apiKey     string
}

var _ Router = (*Client)(nil)

// NewClient construye el cliente con un timeout de red de 60 s: el módulo
// original dependía del timeout por defecto del cliente HTTP y un servicio
// colgado bloqueaba la transacción del anfitrión indefinidamente.
func NewClient(cfg Config) *Client {
	base := baseURLStaging
	if cfg.Production {
		base = baseURLProd
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    base,
		account:    cfg.Account,
		apiKey:     cfg.APIKey,
	}
}

// ── Estructuras de respuesta JSON ──────────────────────────────────────────────

type invoicePayload struct {
	ID    json.Number `json:"id"`
	State string      `json:"state"`
}

type importResponse struct {
	Invoice invoicePayload `json:"invoice"`
}

type listResponse struct {
	Invoices []invoicePayload `json:"invoices"`
}

// ── ImportInvoice ──────────────────────────────────────────────────────────────

// ImportInvoice sube el XSIG como data URI base64 al import del proyecto.
// POST /projects/{account}/invoices/import.json[?send_after_import=true]
func (c *Client) ImportInvoice(ctx context.Context, doc []byte, docDate time.Time, sendAfterImport bool) (*ImportResult, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/invoices/import.json", c.baseURL, url.PathEscape(c.account))
	if sendAfterImport {
		endpoint += "?send_after_import=true"
	}

	payload := fmt.Sprintf("data:%s;name=facturae-%s.xsig;base64,%s",
		dataURIMIME, docDate.Format("20060102"),
		base64.StdEncoding.EncodeToString(doc))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("b2brouter: crear request de import: %w", err)
	}
	req.Header.Set("Content-Type", dataURIMIME)
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("b2brouter: import de factura: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("b2brouter: leer respuesta de import: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(rawBody)}
	}

	var parsed importResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return nil, fmt.Errorf("b2brouter: parsear respuesta de import: %w", err)
	}
	if parsed.Invoice.ID.String() == "" {
		return nil, fmt.Errorf("b2brouter: respuesta de import sin id de factura: %s", rawBody)
	}
	return &ImportResult{
		ID:    parsed.Invoice.ID.String(),
		State: parsed.Invoice.State,
	}, nil
}

// ── ListInvoices ───────────────────────────────────────────────────────────────

// ListInvoices consulta una página del listado de facturas del proyecto.
// GET /projects/{account}/invoices.json?offset=&limit=&date_from=&date_to=
func (c *Client) ListInvoices(ctx context.Context, q ListQuery) ([]RemoteInvoice, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("limit", strconv.Itoa(q.Limit))
	if !q.DateFrom.IsZero() {
		params.Set("date_from", q.DateFrom.Format("2006-01-02"))
	}
	if !q.DateTo.IsZero() {
		params.Set("date_to", q.DateTo.Format("2006-01-02"))
	}
	endpoint := fmt.Sprintf("%s/projects/%s/invoices.json?%s",
		c.baseURL, url.PathEscape(c.account), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("b2brouter: crear request de listado: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("b2brouter: listado de facturas: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20)) // páginas de 500
	if err != nil {
		return nil, fmt.Errorf("b2brouter: leer respuesta de listado: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(rawBody)}
	}

	var parsed listResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return nil, fmt.Errorf("b2brouter: parsear listado: %w", err)
	}

	out := make([]RemoteInvoice, 0, len(parsed.Invoices))
	for _, inv := range parsed.Invoices {
		out = append(out, RemoteInvoice{ID: inv.ID.String(), State: inv.State})
	}
	return out, nil
}

// ── SendInvoice ────────────────────────────────────────────────────────────────

// SendInvoice dispara el envío de una factura importada.
// POST /invoices/send_invoice/{remote_id}.json
func (c *Client) SendInvoice(ctx context.Context, remoteID string) error {
	endpoint := fmt.Sprintf("%s/invoices/send_invoice/%s.json",
		c.baseURL, url.PathEscape(remoteID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("b2brouter: crear request de envío: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("b2brouter: envío de factura %s: %w", remoteID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rawBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &APIError{StatusCode: resp.StatusCode, Body: string(rawBody)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
