package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AperturaRequest struct {
	CajaID       string          `json:"caja_id"       validate:"required,uuid"`
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
}

type CierreRequest struct {
	MontoFinal decimal.Decimal `json:"monto_final" validate:"min=0"`
}

// CierreAdministrativoRequest is the supervisor override for abandoned
// ("zombie") sessions. Motivo is an audit string of at least 10 characters —
// shorter requests never reach the service layer.
type CierreAdministrativoRequest struct {
	MontoFinal decimal.Decimal `json:"monto_final" validate:"min=0"`
	Motivo     string          `json:"motivo"      validate:"required,min=10"`
}

type MovimientoCajaRequest struct {
	SesionCajaID string          `json:"sesion_caja_id" validate:"required,uuid"`
	Tipo         string          `json:"tipo"           validate:"required,oneof=ingreso egreso"`
	Monto        decimal.Decimal `json:"monto"          validate:"required,gt=0"`
	Descripcion  string          `json:"descripcion"    validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Activa bool   `json:"activa"`
}

// ArqueoResponse is the reconciliation block shared by the preview endpoint
// and the closed-session snapshot. Diferencia and Clasificacion are nil when
// no counted amount is available yet.
type ArqueoResponse struct {
	MontoEsperado decimal.Decimal  `json:"monto_esperado"`
	Diferencia    *decimal.Decimal `json:"diferencia"`
	Clasificacion *string          `json:"clasificacion"` // cuadrada | sobrante | faltante
}

type SesionCajaResponse struct {
	ID        string `json:"id"`
	CajaID    string `json:"caja_id"`
	Caja      string `json:"caja"`
	UsuarioID string `json:"usuario_id"`
	Estado    string `json:"estado"` // ABIERTA | CERRADA

	MontoInicial  decimal.Decimal `json:"monto_inicial"`
	TotalVentas   decimal.Decimal `json:"total_ventas"`
	TotalIngresos decimal.Decimal `json:"total_ingresos"`
	TotalEgresos  decimal.Decimal `json:"total_egresos"`

	MontoFinal *decimal.Decimal `json:"monto_final"`
	Arqueo     ArqueoResponse   `json:"arqueo"`

	TipoCierre   *string `json:"tipo_cierre"`
	MotivoCierre *string `json:"motivo_cierre"`

	FechaApertura string  `json:"fecha_apertura"`
	FechaCierre   *string `json:"fecha_cierre"`
}

type HistorialSesionesResponse struct {
	Data  []SesionCajaResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
