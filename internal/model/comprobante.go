package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Comprobante is the fiscal document emitted for a Venta through the SUNAT
// sidecar. It starts "pendiente"; the worker pool moves it to "emitido" or
// "rechazado", with retry metadata for the cron.
type Comprobante struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	// Tipo: "boleta" | "factura" | "ticket"
	Tipo        string `gorm:"type:varchar(10);not null"`
	Serie       string `gorm:"type:varchar(10);not null"`
	Correlativo int    `gorm:"not null"`

	MontoNeto  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoIGV   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Estado: "pendiente" | "emitido" | "rechazado" | "error" | "anulado"
	Estado string `gorm:"type:varchar(15);not null;default:'pendiente'"`
	// HashSUNAT is the acceptance hash returned by the sidecar on success.
	HashSUNAT     *string `gorm:"column:hash_sunat"`
	Observaciones *string
	PDFPath       *string

	RetryCount  int `gorm:"not null;default:0"`
	NextRetryAt *time.Time
	LastError   *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Venta *Venta `gorm:"foreignKey:VentaID"`
}
