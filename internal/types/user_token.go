package types

import (
	"time"

	"github.com/google/uuid"
)

// UserToken is one refresh-token session. Its ID doubles as the SSE session
// id so a reconnecting tab replaces its own stream.
type UserToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null;column:token" json:"-"`
	ExpiresAt time.Time `gorm:"not null;column:expires_at" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (UserToken) TableName() string {
	return "user_token"
}
