package domain

import (
	"context"
	"iter"

	"github.com/disgoorg/snowflake/v2"
)

// JobFilter selects jobs for bulk operations. The zero value matches every
// job in the guild.
type JobFilter struct {
	// PayloadName, when non-empty, matches jobs whose payload carries this
	// exact (case-sensitive) name.
	PayloadName string

	// UnstartedOnly restricts the filter to jobs that have not been
	// claimed yet.
	UnstartedOnly bool
}

// JobRepository is the durable, per-guild ordered job queue.
type JobRepository interface {
	// Insert persists a new job and returns it with its assigned ID.
	Insert(ctx context.Context, job Job) (Job, error)

	// ClaimNext atomically selects the oldest queued job and sets its
	// StartTime, returning the claimed job. Two concurrent callers never
	// claim the same job. Returns ErrQueueEmpty when no queued job exists.
	ClaimNext(ctx context.Context, guildID snowflake.ID) (Job, error)

	// MarkFinished sets the job's EndTime and optional error note.
	// Idempotent: finishing an already-finished job is a no-op, so
	// duplicate completion signals from the voice session are harmless.
	MarkFinished(ctx context.Context, id JobID, errNote string) error

	// Remove deletes all jobs matching the filter and reports how many
	// rows were deleted.
	Remove(ctx context.Context, guildID snowflake.ID, filter JobFilter) (int64, error)

	// Count reports how many jobs match the filter.
	Count(ctx context.Context, guildID snowflake.ID, filter JobFilter) (int64, error)

	// ListOrdered yields the guild's jobs ordered by creation time. The
	// sequence is lazy and restartable: each range re-runs the query.
	ListOrdered(ctx context.Context, guildID snowflake.ID) iter.Seq2[Job, error]

	// ResetAll clears StartTime and EndTime on every job in the guild,
	// re-queueing the whole list in its original order.
	ResetAll(ctx context.Context, guildID snowflake.ID) error

	// IsExhausted reports whether no queued job remains, i.e. every job
	// has been claimed at least once. An empty queue is exhausted.
	IsExhausted(ctx context.Context, guildID snowflake.ID) (bool, error)

	// SweepOrphaned finishes every job stuck in Playing state across all
	// guilds, recording the given note. Used at startup to recover jobs a
	// previous process claimed but never finished.
	SweepOrphaned(ctx context.Context, errNote string) (int64, error)
}

// CatalogRepository is the durable, per-guild collection of saved media
// references. Names match exactly and case-sensitively.
type CatalogRepository interface {
	// Find returns the entry with the given name, or ErrNotFound.
	Find(ctx context.Context, guildID snowflake.ID, name string) (MediaReference, error)

	// Insert persists a new entry. Returns ErrDuplicateName when the name
	// is already taken in the guild.
	Insert(ctx context.Context, guildID snowflake.ID, entry MediaReference) error

	// Delete removes the entry with the given name, or returns ErrNotFound.
	Delete(ctx context.Context, guildID snowflake.ID, name string) error

	// Rename changes an entry's name. Returns ErrNotFound when oldName is
	// absent and ErrDuplicateName when newName is already taken.
	Rename(ctx context.Context, guildID snowflake.ID, oldName, newName string) error

	// ListAll yields every entry in the guild ordered by name. Lazy and
	// restartable like JobRepository.ListOrdered.
	ListAll(ctx context.Context, guildID snowflake.ID) iter.Seq2[MediaReference, error]
}
