package dto

import "github.com/shopspring/decimal"

type ConfiguracionFiscalRequest struct {
	RUC           string          `json:"ruc"            validate:"required,len=11"`
	RazonSocial   string          `json:"razon_social"   validate:"required"`
	Direccion     string          `json:"direccion"      validate:"required"`
	IGVPorcentaje decimal.Decimal `json:"igv_porcentaje" validate:"required,gt=0"`
}

type ConfiguracionFiscalResponse struct {
	RUC           string          `json:"ruc"`
	RazonSocial   string          `json:"razon_social"`
	Direccion     string          `json:"direccion"`
	IGVPorcentaje decimal.Decimal `json:"igv_porcentaje"`
}

type CrearSerieRequest struct {
	Tipo  string `json:"tipo"  validate:"required,oneof=boleta factura ticket"`
	Serie string `json:"serie" validate:"required,min=4,max=10"`
}

type SerieResponse struct {
	ID          string `json:"id"`
	Tipo        string `json:"tipo"`
	Serie       string `json:"serie"`
	Correlativo int    `json:"correlativo"`
	Activa      bool   `json:"activa"`
}
