package application

import (
	"context"
	"log/slog"

	"github.com/sglre6355/djbot/internal/modules/discjockey/application/ports"
	"github.com/sglre6355/djbot/internal/modules/discjockey/application/usecases"
	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// CompletionEventHandler feeds playback completion continuations from the
// voice adapter into the playback controller. It is the only consumer of
// PlaybackFinishedEvent; the controller entry point it calls is safe for
// concurrent invocation, so each guild's chain advances independently.
type CompletionEventHandler struct {
	controller *usecases.PlaybackController
	subscriber ports.CompletionSubscriber
}

// NewCompletionEventHandler creates a new CompletionEventHandler.
func NewCompletionEventHandler(
	controller *usecases.PlaybackController,
	subscriber ports.CompletionSubscriber,
) *CompletionEventHandler {
	return &CompletionEventHandler{
		controller: controller,
		subscriber: subscriber,
	}
}

// Start registers the completion handler with the subscriber.
func (h *CompletionEventHandler) Start() {
	h.subscriber.OnPlaybackFinished(h.handlePlaybackFinished)
	slog.Debug("completion event handler registered")
}

func (h *CompletionEventHandler) handlePlaybackFinished(
	ctx context.Context,
	event domain.PlaybackFinishedEvent,
) {
	slog.Debug("handling playback completion",
		"guild", event.GuildID,
		"job", event.JobID,
		"error", event.Err,
	)

	// One goroutine per continuation: a slow store call for one guild must
	// not serialize other guilds' chains behind it.
	go h.controller.OnPlaybackFinished(ctx, event.GuildID, event.JobID, event.Err)
}
