package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale channels. POS sales require an open SesionCaja; storefront ("tienda")
// checkouts have none.
const (
	CanalPOS    = "pos"
	CanalTienda = "tienda"
)

// Venta is a completed sale. Serie+Correlativo come from the fiscal series
// allocated inside the sale transaction, so numbering has no gaps per serie.
type Venta struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Serie       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_serie_correlativo"`
	Correlativo int       `gorm:"not null;uniqueIndex:idx_serie_correlativo"`
	// Canal: "pos" | "tienda"
	Canal        string     `gorm:"type:varchar(10);not null;default:'pos'"`
	SesionCajaID *uuid.UUID `gorm:"type:uuid;index"`
	UsuarioID    *uuid.UUID `gorm:"type:uuid;index"`
	ClienteID    *uuid.UUID `gorm:"type:uuid;index"`

	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IGV      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Estado: "completada" | "anulada"
	Estado string `gorm:"type:varchar(15);not null;default:'completada'"`
	// ClaveIdempotencia deduplicates double-submits and offline replays.
	ClaveIdempotencia *string `gorm:"uniqueIndex"`
	CreatedAt         time.Time

	Items   []VentaItem `gorm:"foreignKey:VentaID"`
	Pagos   []VentaPago `gorm:"foreignKey:VentaID"`
	Cliente *Cliente    `gorm:"foreignKey:ClienteID"`
}

type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

type VentaPago struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID uuid.UUID `gorm:"type:uuid;index;not null"`
	// Metodo: "efectivo" | "tarjeta" | "transferencia" | "yape"
	Metodo string          `gorm:"type:varchar(20);not null"`
	Monto  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
