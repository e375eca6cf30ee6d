package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sglre6355/djbot/internal/modules/discjockey/application/ports"
	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// DefaultEventBufferSize is the default buffer size for the completion channel.
const DefaultEventBufferSize = 100

// Compile-time checks that ChannelEventBus implements the ports interfaces.
var (
	_ ports.CompletionPublisher  = (*ChannelEventBus)(nil)
	_ ports.CompletionSubscriber = (*ChannelEventBus)(nil)
)

// ChannelEventBus carries playback completion continuations from the voice
// adapter's callback goroutine to the application handler. Publishing is
// non-blocking so the adapter's event loop is never stalled by a slow
// consumer.
type ChannelEventBus struct {
	playbackFinished chan domain.PlaybackFinishedEvent

	handlers []func(context.Context, domain.PlaybackFinishedEvent)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		playbackFinished: make(chan domain.PlaybackFinishedEvent, bufferSize),
		ctx:              ctx,
		cancel:           cancel,
	}

	bus.wg.Add(1)
	go bus.dispatchPlaybackFinished()

	return bus
}

func (b *ChannelEventBus) dispatchPlaybackFinished() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.playbackFinished:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.handlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

// PublishPlaybackFinished publishes a PlaybackFinishedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishPlaybackFinished(event domain.PlaybackFinishedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "PlaybackFinished")
		return
	}

	select {
	case b.playbackFinished <- event:
		slog.Debug("published event",
			"type", "PlaybackFinished",
			"guild", event.GuildID,
			"job", event.JobID,
		)
	default:
		slog.Warn("event buffer full, dropping event",
			"type", "PlaybackFinished",
			"guild", event.GuildID,
			"job", event.JobID,
		)
	}
}

// OnPlaybackFinished registers a handler for PlaybackFinishedEvent.
func (b *ChannelEventBus) OnPlaybackFinished(
	handler func(context.Context, domain.PlaybackFinishedEvent),
) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Close stops the dispatcher. After calling Close, publishing is a no-op.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	close(b.playbackFinished)
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
