package model

import (
	"time"

	"github.com/google/uuid"
)

type Cliente struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// TipoDocumento: "DNI" | "RUC" | "CE"
	TipoDocumento string `gorm:"type:varchar(5);not null;default:'DNI'"`
	NumDocumento  string `gorm:"uniqueIndex;not null"`
	Nombre        string `gorm:"index;not null"`
	Email         *string
	Telefono      *string
	Direccion     *string
	Activo        bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
