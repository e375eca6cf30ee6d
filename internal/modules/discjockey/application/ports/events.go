package ports

import (
	"context"

	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// CompletionPublisher publishes playback completion continuations. The
// voice adapter calls this from its callback goroutine; publishing must
// never block playback handling.
type CompletionPublisher interface {
	PublishPlaybackFinished(event domain.PlaybackFinishedEvent)
}

// CompletionSubscriber registers handlers for completion continuations.
type CompletionSubscriber interface {
	OnPlaybackFinished(handler func(context.Context, domain.PlaybackFinishedEvent))
}
