package dto

import "github.com/shopspring/decimal"

type CrearProductoRequest struct {
	CodigoBarras     string          `json:"codigo_barras" validate:"required"`
	Nombre           string          `json:"nombre"        validate:"required"`
	Descripcion      *string         `json:"descripcion"`
	Categoria        string          `json:"categoria"     validate:"required"`
	PrecioCompra     decimal.Decimal `json:"precio_compra" validate:"min=0"`
	PrecioVenta      decimal.Decimal `json:"precio_venta"  validate:"required,gt=0"`
	Stock            decimal.Decimal `json:"stock"         validate:"min=0"`
	StockMinimo      decimal.Decimal `json:"stock_minimo"  validate:"min=0"`
	UnidadMedida     string          `json:"unidad_medida" validate:"required"`
	PermiteDecimales bool            `json:"permite_decimales"`
	ProveedorID      *string         `json:"proveedor_id"  validate:"omitempty,uuid"`
}

type ActualizarProductoRequest struct {
	Nombre           *string          `json:"nombre"`
	Descripcion      *string          `json:"descripcion"`
	Categoria        *string          `json:"categoria"`
	PrecioCompra     *decimal.Decimal `json:"precio_compra" validate:"omitempty,min=0"`
	PrecioVenta      *decimal.Decimal `json:"precio_venta"  validate:"omitempty,gt=0"`
	StockMinimo      *decimal.Decimal `json:"stock_minimo"  validate:"omitempty,min=0"`
	UnidadMedida     *string          `json:"unidad_medida"`
	PermiteDecimales *bool            `json:"permite_decimales"`
	ProveedorID      *string          `json:"proveedor_id"  validate:"omitempty,uuid"`
}

// AjusteStockRequest is a manual inventory adjustment; Cantidad is the signed
// delta and Motivo feeds the append-only MovimientoStock trail.
type AjusteStockRequest struct {
	Cantidad decimal.Decimal `json:"cantidad" validate:"required"`
	Motivo   string          `json:"motivo"   validate:"required,min=5"`
}

type ProductoFilter struct {
	Busqueda  string `form:"q"`
	Categoria string `form:"categoria"`
	Activos   bool   `form:"solo_activos,default=true"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ProductoResponse struct {
	ID               string          `json:"id"`
	CodigoBarras     string          `json:"codigo_barras"`
	Nombre           string          `json:"nombre"`
	Descripcion      *string         `json:"descripcion"`
	Categoria        string          `json:"categoria"`
	PrecioCompra     decimal.Decimal `json:"precio_compra"`
	PrecioVenta      decimal.Decimal `json:"precio_venta"`
	Stock            decimal.Decimal `json:"stock"`
	StockMinimo      decimal.Decimal `json:"stock_minimo"`
	UnidadMedida     string          `json:"unidad_medida"`
	PermiteDecimales bool            `json:"permite_decimales"`
	Activo           bool            `json:"activo"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// PrecioResponse is the public barcode price check payload (Redis-cached).
type PrecioResponse struct {
	Nombre       string          `json:"nombre"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"`
	UnidadMedida string          `json:"unidad_medida"`
}

// AlertaStockResponse flags products at or below their minimum.
type AlertaStockResponse struct {
	ProductoID  string          `json:"producto_id"`
	Nombre      string          `json:"nombre"`
	Stock       decimal.Decimal `json:"stock"`
	StockMinimo decimal.Decimal `json:"stock_minimo"`
}
