package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string          `json:"producto_id" validate:"required,uuid"`
	Cantidad   decimal.Decimal `json:"cantidad"    validate:"required,gt=0"`
}

type PagoRequest struct {
	Metodo string          `json:"metodo" validate:"required,oneof=efectivo tarjeta transferencia yape"`
	Monto  decimal.Decimal `json:"monto"  validate:"required,gt=0"`
}

type RegistrarVentaRequest struct {
	SesionCajaID string             `json:"sesion_caja_id" validate:"required,uuid"`
	Items        []ItemVentaRequest `json:"items"          validate:"required,min=1,dive"`
	Pagos        []PagoRequest      `json:"pagos"          validate:"required,min=1,dive"`
	ClienteID    *string            `json:"cliente_id"     validate:"omitempty,uuid"`
	// ClaveIdempotencia protects against double-submits: a repeated key
	// returns the already-registered sale instead of creating a duplicate.
	ClaveIdempotencia *string `json:"clave_idempotencia" validate:"omitempty,uuid"`
	// ClienteEmail: optional — when present, the comprobante worker mails the PDF.
	ClienteEmail *string `json:"cliente_email" validate:"omitempty,email"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

type VentaFilter struct {
	Fecha  string `form:"fecha"`                     // YYYY-MM-DD; empty = today
	Estado string `form:"estado,default=completada"` // completada | anulada | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	UnidadMedida   string          `json:"unidad_medida"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID          string              `json:"id"`
	Serie       string              `json:"serie"`
	Correlativo int                 `json:"correlativo"`
	Canal       string              `json:"canal"`
	Items       []ItemVentaResponse `json:"items"`
	Subtotal    decimal.Decimal     `json:"subtotal"`
	IGV         decimal.Decimal     `json:"igv"`
	Total       decimal.Decimal     `json:"total"`
	Pagos       []PagoRequest       `json:"pagos"`
	Vuelto      decimal.Decimal     `json:"vuelto"`
	Estado      string              `json:"estado"`
	CreatedAt   string              `json:"created_at"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
