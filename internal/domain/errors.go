package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("factura no encontrada")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrNoFacturae       = errors.New("la factura no tiene documento facturae generado")
	ErrAlreadySubmitted = errors.New("la factura ya fue importada en B2BRouter")
)
