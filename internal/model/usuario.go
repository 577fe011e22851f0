package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles. cierre-administrativo and fiscal config are supervisor+ operations.
const (
	RolCajero        = "cajero"
	RolSupervisor    = "supervisor"
	RolAdministrador = "administrador"
)

type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Email        string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	// Rol: "cajero" | "supervisor" | "administrador"
	Rol       string `gorm:"type:varchar(20);not null"`
	Activo    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
