package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nan-tic/facturae-b2brouter/internal/domain/facturae"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}

// facturaeService normaliza el valor de columna al enum cerrado; un valor
// desconocido en DB se trata como sin servicio.
func facturaeService(s string) facturae.Service {
	svc := facturae.Service(s)
	if !svc.Valid() {
		return facturae.ServiceNone
	}
	return svc
}
