package dto

type CrearClienteRequest struct {
	TipoDocumento string  `json:"tipo_documento" validate:"required,oneof=DNI RUC CE"`
	NumDocumento  string  `json:"num_documento"  validate:"required,min=8"`
	Nombre        string  `json:"nombre"         validate:"required"`
	Email         *string `json:"email"          validate:"omitempty,email"`
	Telefono      *string `json:"telefono"`
	Direccion     *string `json:"direccion"`
}

type ActualizarClienteRequest struct {
	Nombre    *string `json:"nombre"`
	Email     *string `json:"email"    validate:"omitempty,email"`
	Telefono  *string `json:"telefono"`
	Direccion *string `json:"direccion"`
}

type ClienteResponse struct {
	ID            string  `json:"id"`
	TipoDocumento string  `json:"tipo_documento"`
	NumDocumento  string  `json:"num_documento"`
	Nombre        string  `json:"nombre"`
	Email         *string `json:"email"`
	Telefono      *string `json:"telefono"`
	Direccion     *string `json:"direccion"`
	Activo        bool    `json:"activo"`
}
