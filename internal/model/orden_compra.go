package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase order states. Reception is what moves stock.
const (
	OrdenPendiente = "PENDIENTE"
	OrdenRecibida  = "RECIBIDA"
	OrdenAnulada   = "ANULADA"
)

// OrdenCompra is a purchase order against a proveedor. IGV is computed from
// the configured fiscal rate at creation time and frozen on the record.
type OrdenCompra struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero      int       `gorm:"autoIncrement;uniqueIndex"`
	ProveedorID uuid.UUID `gorm:"type:uuid;not null;index"`
	UsuarioID   uuid.UUID `gorm:"type:uuid;not null"`

	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IGV      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Estado: "PENDIENTE" | "RECIBIDA" | "ANULADA"
	Estado         string `gorm:"type:varchar(10);not null;default:'PENDIENTE'"`
	Observaciones  *string
	CreatedAt      time.Time
	FechaRecepcion *time.Time

	Proveedor Proveedor         `gorm:"foreignKey:ProveedorID"`
	Items     []OrdenCompraItem `gorm:"foreignKey:OrdenCompraID"`
}

type OrdenCompraItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrdenCompraID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}
