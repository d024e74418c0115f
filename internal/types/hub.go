package types

import (
	"time"

	"github.com/google/uuid"
)

// Hub is the location grouping a complaint and its reviewers belong to.
type Hub struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name     string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Location string    `gorm:"column:location" json:"location,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Hub) TableName() string {
	return "hub"
}
