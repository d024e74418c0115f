package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email    string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password string    `gorm:"not null;column:password" json:"-"`
	Name     string    `gorm:"not null;column:name" json:"name"`

	Role  Role       `gorm:"not null;default:'submitter';index;column:role" json:"role"`
	HubID *uuid.UUID `gorm:"type:uuid;index;column:hub_id" json:"hub_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
