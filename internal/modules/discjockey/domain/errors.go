package domain

import "errors"

// Domain errors for the disc jockey module. The presentation layer maps
// these to user-facing messages; nothing in the core formats text.
var (
	// ErrNotFound is returned when a catalog or queue lookup by name misses.
	ErrNotFound = errors.New("no entry with that name")

	// ErrDuplicateName is returned when saving a catalog entry whose name
	// is already taken in the guild.
	ErrDuplicateName = errors.New("an entry with that name already exists")

	// ErrInvalidReference is returned when an enqueue target is not a
	// parsable URL.
	ErrInvalidReference = errors.New("not a valid URL")

	// ErrResolutionFailed is returned when the media resolver cannot
	// produce stream metadata for a reference.
	ErrResolutionFailed = errors.New("failed to resolve media")

	// ErrNoActiveSession is returned for playback control operations when
	// the bot has no voice session in the guild.
	ErrNoActiveSession = errors.New("not connected to a voice channel")

	// ErrQueueEmpty is returned when a claim finds no queued job.
	ErrQueueEmpty = errors.New("the queue is empty")
)
