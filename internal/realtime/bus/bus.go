package bus

import (
	"context"

	"github.com/yungbote/complaintdesk-backend/internal/realtime"
)

// Bus bridges change events between processes: every mutation is published
// here, and each process forwards what it receives into its local hub.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
