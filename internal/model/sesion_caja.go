package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session states. CERRADA is terminal: once set, MontoFinal and the
// reconciliation figures are immutable.
const (
	SesionAbierta = "ABIERTA"
	SesionCerrada = "CERRADA"
)

// Close kinds recorded for audit.
const (
	CierreNormal         = "normal"
	CierreAdministrativo = "administrativo"
)

// SesionCaja is one cash-register shift. The running totals (ventas,
// ingresos, egresos) are never stored while the session is open — they are
// derived from the MovimientoCaja ledger. At close, the reconciliation
// snapshot (MontoFinal, MontoEsperado, Diferencia, Clasificacion) is
// persisted once and never mutated.
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Estado       string          `gorm:"type:varchar(10);not null;default:'ABIERTA'"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Closing snapshot — absent while Estado == ABIERTA.
	MontoFinal    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MontoEsperado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Diferencia    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Clasificacion: "cuadrada" | "sobrante" | "faltante"
	Clasificacion *string `gorm:"type:varchar(10)"`

	// TipoCierre: "normal" | "administrativo". Forced closes record the
	// supervisor and a motivo of at least 10 characters.
	TipoCierre   *string    `gorm:"type:varchar(15)"`
	MotivoCierre *string    `gorm:"type:text"`
	CerradaPorID *uuid.UUID `gorm:"type:uuid"`

	FechaApertura time.Time
	FechaCierre   *time.Time

	Caja        Caja             `gorm:"foreignKey:CajaID"`
	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

// MovimientoCaja is an immutable event in the cash drawer ledger.
// Tipo: "venta" | "ingreso" | "egreso" | "anulacion"
// Movements are NEVER modified or deleted — cancellations create inverse entries.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(20);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion  string          `gorm:"not null"`
	// ReferenciaID links to the originating Venta or manual operation
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}

// Movement types in the drawer ledger.
const (
	MovVenta     = "venta"
	MovIngreso   = "ingreso"
	MovEgreso    = "egreso"
	MovAnulacion = "anulacion"
)
