package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/djbot/internal/modules/discjockey/application/ports"
	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// PlaybackController owns the single-active-session invariant per guild.
// It claims jobs from the job store, resolves their payloads, hands the
// stream to the voice session, and re-enters itself through the completion
// continuation until the queue is exhausted.
//
// Every entry point reduces to an atomic store operation plus an
// idempotent session transition, so the command path and the completion
// path may call in concurrently without a lock spanning resolve+play.
type PlaybackController struct {
	jobs     domain.JobRepository
	sessions domain.SessionRegistry
	resolver ports.MediaResolver
	voice    ports.VoiceSession
}

// NewPlaybackController creates a new PlaybackController.
func NewPlaybackController(
	jobs domain.JobRepository,
	sessions domain.SessionRegistry,
	resolver ports.MediaResolver,
	voice ports.VoiceSession,
) *PlaybackController {
	return &PlaybackController{
		jobs:     jobs,
		sessions: sessions,
		resolver: resolver,
		voice:    voice,
	}
}

// EnsureStarted claims and starts the next queued job if the guild's
// session is idle. Returns the started job, or nil when the call was a
// no-op because playback is already active. Returns domain.ErrQueueEmpty
// when no queued job exists and domain.ErrNoActiveSession when the bot has
// no voice session in the guild. Never auto-retries an empty queue.
func (c *PlaybackController) EnsureStarted(
	ctx context.Context,
	guildID snowflake.ID,
) (*domain.Job, error) {
	sess := c.sessions.Get(guildID)
	if sess == nil || !c.voice.IsConnected(guildID) {
		return nil, domain.ErrNoActiveSession
	}

	// Idle -> Awaiting is a compare-and-swap: a concurrent enqueue and a
	// completion callback both calling in results in exactly one claim.
	if !sess.TryBeginStart() {
		return nil, nil
	}

	for {
		job, err := c.jobs.ClaimNext(ctx, guildID)
		if err != nil {
			sess.AbortStart()
			return nil, err
		}

		streamRef := job.Payload.Metadata.StreamRef
		if streamRef == "" {
			resolved, rerr := c.resolver.Resolve(ctx, job.Payload.URL)
			if rerr != nil {
				// A failed track must not stall the queue: finish it with
				// the error recorded and move on to the next job.
				slog.Warn("failed to resolve job payload, skipping",
					"guild", guildID,
					"job", job.ID,
					"name", job.Payload.Name,
					"error", rerr,
				)
				note := fmt.Sprintf("%v: %v", domain.ErrResolutionFailed, rerr)
				if ferr := c.jobs.MarkFinished(ctx, job.ID, note); ferr != nil {
					slog.Error("failed to finish unresolvable job", "job", job.ID, "error", ferr)
				}
				continue
			}
			streamRef = resolved.StreamRef
		}

		if perr := c.voice.Play(ctx, guildID, job.ID, streamRef); perr != nil {
			// Same policy as an unresolvable payload: record the failure
			// and move on so one bad track never stalls the chain.
			slog.Warn("play request failed, skipping job",
				"guild", guildID,
				"job", job.ID,
				"name", job.Payload.Name,
				"error", perr,
			)
			if ferr := c.jobs.MarkFinished(ctx, job.ID, perr.Error()); ferr != nil {
				slog.Error("failed to finish unplayable job", "job", job.ID, "error", ferr)
			}
			continue
		}

		sess.MarkPlaying(job.ID)
		slog.Info("started playback",
			"guild", guildID,
			"job", job.ID,
			"name", job.Payload.Name,
		)
		return &job, nil
	}
}

// OnPlaybackFinished is the completion continuation: invoked once per
// playback attempt by the voice adapter, success or failure. It finishes
// the job, frees the session slot, and immediately re-enters EnsureStarted
// to continue the chain. A playback error is recorded but never blocks
// progression to the next job.
func (c *PlaybackController) OnPlaybackFinished(
	ctx context.Context,
	guildID snowflake.ID,
	jobID domain.JobID,
	playbackErr error,
) {
	note := ""
	if playbackErr != nil {
		note = playbackErr.Error()
		slog.Warn("playback finished with error",
			"guild", guildID,
			"job", jobID,
			"error", playbackErr,
		)
	}

	if err := c.jobs.MarkFinished(ctx, jobID, note); err != nil {
		slog.Error("failed to mark job finished", "job", jobID, "error", err)
	}

	if sess := c.sessions.Get(guildID); sess != nil {
		sess.Finish(jobID)
	}

	if _, err := c.EnsureStarted(ctx, guildID); err != nil {
		switch {
		case errors.Is(err, domain.ErrQueueEmpty):
			slog.Debug("queue exhausted", "guild", guildID)
		case errors.Is(err, domain.ErrNoActiveSession):
			slog.Debug("no voice session, chain stops", "guild", guildID)
		default:
			slog.Error("failed to continue playback chain", "guild", guildID, "error", err)
		}
	}
}

// Pause pauses the current playback.
func (c *PlaybackController) Pause(ctx context.Context, guildID snowflake.ID) error {
	sess := c.sessions.Get(guildID)
	if sess == nil || sess.Status() != domain.StatusPlaying {
		return domain.ErrNoActiveSession
	}
	if err := c.voice.Pause(ctx, guildID); err != nil {
		return err
	}
	sess.MarkPaused()
	return nil
}

// Resume resumes a paused playback.
func (c *PlaybackController) Resume(ctx context.Context, guildID snowflake.ID) error {
	sess := c.sessions.Get(guildID)
	if sess == nil || sess.Status() != domain.StatusPaused {
		return domain.ErrNoActiveSession
	}
	if err := c.voice.Resume(ctx, guildID); err != nil {
		return err
	}
	sess.MarkResumed()
	return nil
}

// Skip force-finishes the current playback attempt. The completion
// continuation fired by the voice session drives the normal claim-next
// chain, so skipping shares the exact code path of natural completion.
func (c *PlaybackController) Skip(ctx context.Context, guildID snowflake.ID) error {
	sess := c.sessions.Get(guildID)
	if sess == nil || sess.ActiveJobID() == 0 {
		return domain.ErrNoActiveSession
	}
	return c.voice.Stop(ctx, guildID)
}

// Stop clears the guild's queue and halts playback. The active job is
// removed together with the rest of the queue before the voice session is
// released, so no job is left claimed-but-unfinished. Returns the number
// of jobs removed.
func (c *PlaybackController) Stop(ctx context.Context, guildID snowflake.ID) (int64, error) {
	removed, err := c.jobs.Remove(ctx, guildID, domain.JobFilter{})
	if err != nil {
		return 0, err
	}

	if sess := c.sessions.Get(guildID); sess != nil {
		sess.Reset()
		if c.voice.IsConnected(guildID) {
			if err := c.voice.Stop(ctx, guildID); err != nil {
				slog.Warn("failed to stop voice playback", "guild", guildID, "error", err)
			}
		}
	}

	slog.Info("stopped playback and cleared queue", "guild", guildID, "removed", removed)
	return removed, nil
}

// RestartIfExhausted re-queues the whole list and starts playback again,
// but only when every job has already been claimed. This is the explicit
// replay operation; nothing triggers it implicitly. Returns false when the
// queue still has unplayed jobs.
func (c *PlaybackController) RestartIfExhausted(
	ctx context.Context,
	guildID snowflake.ID,
) (bool, error) {
	exhausted, err := c.jobs.IsExhausted(ctx, guildID)
	if err != nil {
		return false, err
	}
	if !exhausted {
		return false, nil
	}

	if err := c.jobs.ResetAll(ctx, guildID); err != nil {
		return false, err
	}

	if _, err := c.EnsureStarted(ctx, guildID); err != nil {
		return false, err
	}
	return true, nil
}

// Summon connects the bot to a voice channel and registers the guild's
// playback session.
func (c *PlaybackController) Summon(
	ctx context.Context,
	guildID, channelID snowflake.ID,
) error {
	if err := c.voice.JoinChannel(ctx, guildID, channelID); err != nil {
		return err
	}
	sess := c.sessions.GetOrCreate(guildID, channelID)
	sess.SetVoiceChannelID(channelID)
	return nil
}

// Dismiss disconnects the bot from the guild's voice channel. The active
// job, if any, is finished first so it is never stranded in Playing state.
func (c *PlaybackController) Dismiss(ctx context.Context, guildID snowflake.ID) error {
	sess := c.sessions.Get(guildID)
	if sess == nil {
		return domain.ErrNoActiveSession
	}

	if active := sess.ActiveJobID(); active != 0 {
		if err := c.jobs.MarkFinished(ctx, active, "dismissed"); err != nil {
			slog.Error("failed to finish active job on dismiss", "job", active, "error", err)
		}
	}

	c.sessions.Delete(guildID)
	return c.voice.LeaveChannel(ctx, guildID)
}

// SetVolume sets the playback volume for the guild, 0-100 percent.
func (c *PlaybackController) SetVolume(
	ctx context.Context,
	guildID snowflake.ID,
	percent int,
) error {
	if c.sessions.Get(guildID) == nil {
		return domain.ErrNoActiveSession
	}
	return c.voice.SetVolume(ctx, guildID, percent)
}

// Status reports the guild's playback status for display.
func (c *PlaybackController) Status(guildID snowflake.ID) domain.PlaybackStatus {
	sess := c.sessions.Get(guildID)
	if sess == nil {
		return domain.StatusIdle
	}
	return sess.Status()
}

// SweepOrphans finishes jobs left in Playing state by a previous process.
// Called once at module init; a restart never strands a claimed job.
func (c *PlaybackController) SweepOrphans(ctx context.Context) error {
	swept, err := c.jobs.SweepOrphaned(ctx, "interrupted by restart")
	if err != nil {
		return err
	}
	if swept > 0 {
		slog.Info("swept orphaned jobs from previous run", "count", swept)
	}
	return nil
}
