package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/complaintdesk-backend/internal/pkg/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := ComplaintChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventComplaintCreated, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventComplaintStatusChanged, Data: map[string]any{"seq": 2}})

	gotFirst := recvMessage(t, clientA.Outbound, time.Second)
	gotSecond := recvMessage(t, clientA.Outbound, time.Second)
	if gotFirst.Event != SSEEventComplaintCreated {
		t.Fatalf("first event: want=%s got=%s", SSEEventComplaintCreated, gotFirst.Event)
	}
	if gotSecond.Event != SSEEventComplaintStatusChanged {
		t.Fatalf("second event: want=%s got=%s", SSEEventComplaintStatusChanged, gotSecond.Event)
	}

	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}

	// A reconnecting client sees only messages broadcast after it attached.
	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventComplaintResolved, Data: map[string]any{"seq": 3}})
	got := recvMessage(t, clientB.Outbound, time.Second)
	if got.Event != SSEEventComplaintResolved {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventComplaintResolved, got.Event)
	}
	select {
	case extra := <-clientB.Outbound:
		t.Fatalf("replayed stale message to new client: %v", extra.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSSEHubBroadcastExactlyOncePerSubscriber(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := ComplaintChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)
	hub.AddChannel(clientB, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventMessageCreated})

	for _, c := range []*SSEClient{clientA, clientB} {
		msg := recvMessage(t, c.Outbound, time.Second)
		if msg.Event != SSEEventMessageCreated {
			t.Fatalf("event: want=%s got=%s", SSEEventMessageCreated, msg.Event)
		}
		select {
		case extra := <-c.Outbound:
			t.Fatalf("duplicate delivery: %v", extra.Event)
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func TestSSEHubChannelIsolation(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channelA := ComplaintChannel(uuid.New())
	channelB := ComplaintChannel(uuid.New())

	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channelA)

	hub.Broadcast(SSEMessage{Channel: channelB, Event: SSEEventMessageCreated})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("message leaked across channels: %v", msg.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSSEHubRemoveChannelStopsDelivery(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := ComplaintChannel(uuid.New())

	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)
	hub.RemoveChannel(client, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventMessageCreated})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("message delivered after unsubscribe: %v", msg.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSSEHubFullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := ComplaintChannel(uuid.New())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	// Nobody drains the client; Broadcast must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(client.Outbound)*2; i++ {
			hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventMessageCreated, Data: map[string]any{"seq": i}})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Broadcast blocked on a full client buffer")
	}
}

func TestSSEHubCloseClientIdempotent(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, ComplaintChannel(uuid.New()))

	hub.CloseClient(client)
	hub.CloseClient(client)
}
