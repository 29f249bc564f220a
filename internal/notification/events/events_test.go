package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
)

type recordingSink struct {
	mu     sync.Mutex
	events []notification.Event
}

func (r *recordingSink) Record(_ context.Context, ev notification.Event) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return &notification.Notification{BookingID: ev.BookingID, Type: ev.Type}, nil
}

func (r *recordingSink) snapshot() []notification.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification.Event(nil), r.events...)
}

func TestPublisherDeliversToHandler(t *testing.T) {
	logger := watermill.NopLogger{}
	transport := NewGoChannelTransport(logger)
	sink := &recordingSink{}

	router, err := NewRouter(transport.Subscriber, "booking-events", NewHandler(sink, logger), logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = router.Run(ctx)
	}()
	<-router.Running()
	defer router.Close()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ev := notification.Event{
		BookingID:  "b-1",
		Title:      "Booking created",
		Type:       notification.TypeCreated,
		StartAt:    start,
		EndAt:      start.Add(time.Hour),
		ResourceID: "room-a",
	}
	require.NoError(t, NewPublisher(transport.Publisher, "booking-events").Notify(ctx, ev))

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	got := sink.snapshot()[0]
	assert.Equal(t, ev.BookingID, got.BookingID)
	assert.Equal(t, ev.Type, got.Type)
	assert.True(t, ev.StartAt.Equal(got.StartAt))
	assert.Equal(t, ev.ResourceID, got.ResourceID)
}

func TestHandlerDropsMalformedPayload(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandler(sink, watermill.NopLogger{})

	err := h.Handle(message.NewMessage(watermill.NewUUID(), []byte("{not json")))
	assert.NoError(t, err)
	assert.Empty(t, sink.snapshot())
}
