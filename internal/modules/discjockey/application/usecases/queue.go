package usecases

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/djbot/internal/modules/discjockey/application/ports"
	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// EnqueueByNameInput contains the input for the EnqueueByName use case.
type EnqueueByNameInput struct {
	GuildID snowflake.ID
	Name    string
}

// EnqueueByURLInput contains the input for the EnqueueByURL use case.
type EnqueueByURLInput struct {
	GuildID     snowflake.ID
	URL         string
	RequestedBy snowflake.ID
}

// EnqueueOutput contains the result of an enqueue use case.
type EnqueueOutput struct {
	Job domain.Job
}

// DequeueByNameInput contains the input for the DequeueByName use case.
type DequeueByNameInput struct {
	GuildID snowflake.ID
	Name    string
}

// DequeueOutput contains the result of the DequeueByName use case.
type DequeueOutput struct {
	Removed int64
}

// QueueService builds jobs from catalog lookups or ad-hoc references,
// inserts them into the job store, and pokes the playback controller when
// the guild is idle.
type QueueService struct {
	jobs       domain.JobRepository
	catalog    domain.CatalogRepository
	resolver   ports.MediaResolver
	controller *PlaybackController
}

// NewQueueService creates a new QueueService.
func NewQueueService(
	jobs domain.JobRepository,
	catalog domain.CatalogRepository,
	resolver ports.MediaResolver,
	controller *PlaybackController,
) *QueueService {
	return &QueueService{
		jobs:       jobs,
		catalog:    catalog,
		resolver:   resolver,
		controller: controller,
	}
}

// EnqueueByName looks the name up in the catalog, enqueues a job carrying
// a copy of the entry, and triggers playback if idle. Returns
// domain.ErrNotFound when the catalog has no such entry; the caller
// decides whether to fall back to an ad-hoc URL enqueue.
func (q *QueueService) EnqueueByName(
	ctx context.Context,
	input EnqueueByNameInput,
) (*EnqueueOutput, error) {
	entry, err := q.catalog.Find(ctx, input.GuildID, input.Name)
	if err != nil {
		return nil, err
	}

	job, err := q.jobs.Insert(ctx, domain.NewJob(input.GuildID, entry))
	if err != nil {
		return nil, err
	}

	q.kickPlayback(ctx, input.GuildID)

	return &EnqueueOutput{Job: job}, nil
}

// EnqueueByURL validates the reference, resolves its metadata, enqueues an
// ad-hoc job, and triggers playback if idle. Returns
// domain.ErrInvalidReference for non-URL input and
// domain.ErrResolutionFailed when the resolver cannot produce metadata; in
// both cases no job is inserted.
func (q *QueueService) EnqueueByURL(
	ctx context.Context,
	input EnqueueByURLInput,
) (*EnqueueOutput, error) {
	if err := domain.ValidateReference(input.URL); err != nil {
		return nil, err
	}

	resolved, err := q.resolver.Resolve(ctx, input.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrResolutionFailed, err)
	}

	payload := domain.NewAdHocReference(input.URL, input.RequestedBy, metadataFrom(resolved))
	job, err := q.jobs.Insert(ctx, domain.NewJob(input.GuildID, payload))
	if err != nil {
		return nil, err
	}

	q.kickPlayback(ctx, input.GuildID)

	return &EnqueueOutput{Job: job}, nil
}

// DequeueByName removes all unplayed jobs with the given payload name and
// confirms none remain afterwards.
func (q *QueueService) DequeueByName(
	ctx context.Context,
	input DequeueByNameInput,
) (*DequeueOutput, error) {
	filter := domain.JobFilter{PayloadName: input.Name, UnstartedOnly: true}

	removed, err := q.jobs.Remove(ctx, input.GuildID, filter)
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		return nil, domain.ErrNotFound
	}

	remaining, err := q.jobs.Count(ctx, input.GuildID, filter)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, fmt.Errorf("%d jobs named %q still queued after removal",
			remaining, input.Name)
	}

	return &DequeueOutput{Removed: removed}, nil
}

// List yields the guild's jobs in creation order for status display.
func (q *QueueService) List(
	ctx context.Context,
	guildID snowflake.ID,
) iter.Seq2[domain.Job, error] {
	return q.jobs.ListOrdered(ctx, guildID)
}

// kickPlayback starts the chain when the guild is idle. An empty-queue or
// no-session result is expected here: the job is already persisted and
// will play once the bot is summoned.
func (q *QueueService) kickPlayback(ctx context.Context, guildID snowflake.ID) {
	_, err := q.controller.EnsureStarted(ctx, guildID)
	if err != nil && !errors.Is(err, domain.ErrNoActiveSession) {
		slog.Warn("failed to start playback after enqueue", "guild", guildID, "error", err)
	}
}

// metadataFrom converts resolver output into persistable payload metadata.
func metadataFrom(r *ports.ResolvedMedia) domain.MediaMetadata {
	return domain.MediaMetadata{
		Title:           r.Title,
		DurationSeconds: r.DurationSeconds,
		IsLive:          r.IsLive,
		Thumbnail:       r.Thumbnail,
		Tags:            r.Tags,
		ViewCount:       r.ViewCount,
		LikeCount:       r.LikeCount,
		Source:          r.Source,
		StreamRef:       r.StreamRef,
	}
}
