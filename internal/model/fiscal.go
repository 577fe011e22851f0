package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfiguracionFiscal is a single-row table holding the business's tax
// identity and the IGV rate applied to purchase orders and sales.
type ConfiguracionFiscal struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RUC           string          `gorm:"column:ruc;not null"`
	RazonSocial   string          `gorm:"not null"`
	Direccion     string          `gorm:"not null"`
	IGVPorcentaje decimal.Decimal `gorm:"type:decimal(5,2);not null;default:18"`
	UpdatedAt     time.Time
}

// SerieComprobante holds the correlative counter for one fiscal series
// (e.g. B001 for boletas, F001 for facturas, T001 for internal tickets).
// Correlativo is advanced with a row lock inside the sale transaction so
// numbering per serie is gapless and race-free.
type SerieComprobante struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Tipo: "boleta" | "factura" | "ticket"
	Tipo        string `gorm:"type:varchar(10);not null"`
	Serie       string `gorm:"type:varchar(10);uniqueIndex;not null"`
	Correlativo int    `gorm:"not null;default:0"`
	Activa      bool   `gorm:"not null;default:true"`
	UpdatedAt   time.Time
}
