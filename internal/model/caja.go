package model

import (
	"time"

	"github.com/google/uuid"
)

// Caja is a physical cash register ("punto de caja"). A caja can hold at most
// one open session at a time; inactive cajas cannot be opened.
type Caja struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"uniqueIndex;not null"`
	Activa    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
