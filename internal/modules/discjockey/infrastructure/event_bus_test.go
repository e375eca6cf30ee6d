package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

func TestEventBusDeliversEvents(t *testing.T) {
	bus := NewChannelEventBus(10)
	defer bus.Close()

	var (
		mu       sync.Mutex
		received []domain.PlaybackFinishedEvent
	)
	done := make(chan struct{}, 3)

	bus.OnPlaybackFinished(func(_ context.Context, event domain.PlaybackFinishedEvent) {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		done <- struct{}{}
	})

	for i := range 3 {
		bus.PublishPlaybackFinished(domain.PlaybackFinishedEvent{
			GuildID: 1,
			JobID:   domain.JobID(i + 1),
		})
	}

	for range 3 {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 3 {
		t.Fatalf("expected 3 events, got %d", len(received))
	}
	// Events are dispatched in publish order.
	for i, event := range received {
		if event.JobID != domain.JobID(i+1) {
			t.Errorf("expected job %d at position %d, got %d", i+1, i, event.JobID)
		}
	}
}

func TestEventBusPublishAfterClose(t *testing.T) {
	bus := NewChannelEventBus(10)
	bus.Close()

	// Must not panic or block.
	bus.PublishPlaybackFinished(domain.PlaybackFinishedEvent{GuildID: 1, JobID: 1})
}

func TestEventBusCloseIsIdempotent(t *testing.T) {
	bus := NewChannelEventBus(10)
	bus.Close()
	bus.Close()
}

func TestEventBusMultipleHandlers(t *testing.T) {
	bus := NewChannelEventBus(10)
	defer bus.Close()

	done := make(chan int, 2)
	bus.OnPlaybackFinished(func(context.Context, domain.PlaybackFinishedEvent) { done <- 1 })
	bus.OnPlaybackFinished(func(context.Context, domain.PlaybackFinishedEvent) { done <- 2 })

	bus.PublishPlaybackFinished(domain.PlaybackFinishedEvent{GuildID: 1, JobID: 1})

	seen := make(map[int]bool)
	for range 2 {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for handlers")
		}
	}
	if !seen[1] || !seen[2] {
		t.Error("expected both handlers to fire")
	}
}
