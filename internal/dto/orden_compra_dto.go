package dto

import "github.com/shopspring/decimal"

type ItemOrdenCompraRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	Cantidad       decimal.Decimal `json:"cantidad"        validate:"required,gt=0"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required,gt=0"`
}

type CrearOrdenCompraRequest struct {
	ProveedorID   string                   `json:"proveedor_id" validate:"required,uuid"`
	Items         []ItemOrdenCompraRequest `json:"items"        validate:"required,min=1,dive"`
	Observaciones *string                  `json:"observaciones"`
}

type CrearProveedorRequest struct {
	RazonSocial string  `json:"razon_social" validate:"required"`
	RUC         string  `json:"ruc"          validate:"required,len=11"`
	Telefono    *string `json:"telefono"`
	Email       *string `json:"email"        validate:"omitempty,email"`
	Direccion   *string `json:"direccion"`
}

type ProveedorResponse struct {
	ID          string  `json:"id"`
	RazonSocial string  `json:"razon_social"`
	RUC         string  `json:"ruc"`
	Telefono    *string `json:"telefono"`
	Email       *string `json:"email"`
	Direccion   *string `json:"direccion"`
	Activo      bool    `json:"activo"`
}

type ItemOrdenCompraResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type OrdenCompraResponse struct {
	ID            string                    `json:"id"`
	Numero        int                       `json:"numero"`
	Proveedor     string                    `json:"proveedor"`
	Items         []ItemOrdenCompraResponse `json:"items"`
	Subtotal      decimal.Decimal           `json:"subtotal"`
	IGV           decimal.Decimal           `json:"igv"`
	Total         decimal.Decimal           `json:"total"`
	Estado        string                    `json:"estado"`
	Observaciones *string                   `json:"observaciones"`
	CreatedAt     string                    `json:"created_at"`
}
