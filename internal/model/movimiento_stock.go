package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovimientoStock is the append-only inventory trail. Every stock change
// (sale, reception, manual adjustment, anulación restore) records one entry.
type MovimientoStock struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID uuid.UUID `gorm:"type:uuid;index;not null"`
	// Tipo: "venta" | "ajuste" | "recepcion_compra" | "restore_anulacion"
	Tipo          string          `gorm:"type:varchar(25);not null"`
	Cantidad      decimal.Decimal `gorm:"type:decimal(12,3);not null"` // signed
	StockAnterior decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	StockNuevo    decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Motivo        string          `gorm:"not null"`
	ReferenciaID  *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt     time.Time
}

// Inventory movement types.
const (
	StockVenta            = "venta"
	StockAjuste           = "ajuste"
	StockRecepcionCompra  = "recepcion_compra"
	StockRestoreAnulacion = "restore_anulacion"
)
