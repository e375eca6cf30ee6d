package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// PlaybackFinishedEvent is the completion continuation for one playback
// attempt. The voice adapter publishes exactly one per attempt (success or
// failure) from its own callback goroutine; the playback controller
// consumes it to finish the job and claim the next one. Carrying the guild
// and job ids explicitly keeps the continuation free of shared mutable
// state.
type PlaybackFinishedEvent struct {
	GuildID snowflake.ID
	JobID   JobID
	Err     error // nil on clean completion
}
