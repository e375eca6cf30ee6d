package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// JobID is the store-assigned identifier of a queue job.
type JobID int64

// DefaultPriority is the priority assigned to every job. The field is
// reserved for future scheduling policies; claiming ignores it today.
const DefaultPriority = 1

// JobState is the derived lifecycle state of a Job, computed from its
// start/end timestamps. The three states are mutually exclusive and
// exhaustive.
type JobState int

const (
	JobStateQueued  JobState = iota // StartTime unset
	JobStatePlaying                 // StartTime set, EndTime unset
	JobStatePlayed                  // both set
)

// String returns a human-readable representation of the job state.
func (s JobState) String() string {
	switch s {
	case JobStatePlaying:
		return "playing"
	case JobStatePlayed:
		return "played"
	default:
		return "queued"
	}
}

// Job is one entry in a guild's playback queue. StartTime transitions
// nil -> set exactly once when the job is claimed; EndTime transitions
// nil -> set exactly once when playback finishes, and only after
// StartTime is set.
type Job struct {
	ID        JobID
	GuildID   snowflake.ID
	CreatedOn time.Time // total ordering key; claim always takes the oldest queued job
	Priority  int
	StartTime *time.Time
	EndTime   *time.Time
	ErrorNote string // non-empty when the job finished with a playback or resolution error
	Payload   MediaReference
}

// NewJob builds an unqueued Job wrapping the given payload.
func NewJob(guildID snowflake.ID, payload MediaReference) Job {
	return Job{
		GuildID:   guildID,
		CreatedOn: time.Now().UTC(),
		Priority:  DefaultPriority,
		Payload:   payload,
	}
}

// State derives the job's lifecycle state from its timestamps.
func (j *Job) State() JobState {
	switch {
	case j.StartTime == nil:
		return JobStateQueued
	case j.EndTime == nil:
		return JobStatePlaying
	default:
		return JobStatePlayed
	}
}
