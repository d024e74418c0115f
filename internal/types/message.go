package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MaxMessageLength bounds chat message content.
const MaxMessageLength = 1000

// Message is one entry in a complaint's discussion thread. Messages are
// append-only: there is no edit or delete path.
type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_message_complaint_created,priority:1;column:complaint_id" json:"complaint_id"`
	SenderID    uuid.UUID `gorm:"type:uuid;not null;index;column:sender_id" json:"sender_id"`

	Content string `gorm:"type:text;not null;column:content" json:"content"`

	// Metadata carries assistant provenance (model name, draft session id)
	// for bot-authored messages; empty object for human messages.
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata;not null;default:'{}'" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index:idx_message_complaint_created,priority:2;column:created_at" json:"created_at"`
}

func (Message) TableName() string {
	return "message"
}
