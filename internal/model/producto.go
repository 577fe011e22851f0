package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a catalog item. Stock is decimal(12,3) because some units
// (metro, kilo) sell in fractions; PermiteDecimales drives the cart step
// (0.1 vs 1) and the quantity floor (0.001 vs 1).
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CodigoBarras string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"index;not null"`
	Descripcion  *string
	Categoria    string          `gorm:"not null"`
	PrecioCompra decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PrecioVenta  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock        decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	StockMinimo  decimal.Decimal `gorm:"type:decimal(12,3);not null;default:5"`
	// UnidadMedida: "unidad" | "metro" | "kilo" | "litro" | "caja" …
	UnidadMedida     string     `gorm:"not null;default:'unidad'"`
	PermiteDecimales bool       `gorm:"not null;default:false"`
	ProveedorID      *uuid.UUID `gorm:"type:uuid;index"`
	Activo           bool       `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Proveedor *Proveedor `gorm:"foreignKey:ProveedorID"`
}
