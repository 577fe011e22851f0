package dto

import (
	"github.com/shopspring/decimal"

	"ferreteria/internal/carrito"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AgregarItemRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
}

type FijarCantidadRequest struct {
	Cantidad decimal.Decimal `json:"cantidad" validate:"required,gt=0"`
}

// CheckoutRequest converts a storefront cart into a sale. The cart is cleared
// exactly once, on success.
type CheckoutRequest struct {
	CarritoID     string  `json:"carrito_id"     validate:"required,uuid"`
	NumDocumento  string  `json:"num_documento"  validate:"required"`
	Nombre        string  `json:"nombre"         validate:"required"`
	Email         *string `json:"email"          validate:"omitempty,email"`
	MetodoPago    string  `json:"metodo_pago"    validate:"required,oneof=efectivo tarjeta transferencia yape"`
	Observaciones *string `json:"observaciones"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CarritoResponse exposes the cart with its running total. Advertencia is set
// when the last mutation was clamped against available stock.
type CarritoResponse struct {
	ID          string          `json:"id"`
	Lineas      []carrito.Linea `json:"lineas"`
	Total       decimal.Decimal `json:"total"`
	Advertencia *string         `json:"advertencia,omitempty"`
}
