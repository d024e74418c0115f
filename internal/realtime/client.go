package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
)

type SSEClient struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Channels  map[string]bool
	Outbound  chan SSEMessage
	done      chan struct{}
	closeOnce sync.Once
	Logger    *logger.Logger
}
