package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// VoiceSession is the per-guild voice transport. The playback controller
// is the only caller of Play/Pause/Resume/Stop; the gateway never touches
// this port directly.
type VoiceSession interface {
	// JoinChannel connects the bot to the voice channel, blocking until
	// the connection is established or ctx expires.
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error

	// LeaveChannel disconnects the bot from the guild's voice channel.
	LeaveChannel(ctx context.Context, guildID snowflake.ID) error

	// Play starts playback of the stream. The jobID is bound to the
	// playback attempt: the adapter publishes a PlaybackFinishedEvent
	// carrying it when the attempt ends, whatever the reason.
	Play(ctx context.Context, guildID snowflake.ID, jobID domain.JobID, streamRef string) error

	// Pause pauses the current playback.
	Pause(ctx context.Context, guildID snowflake.ID) error

	// Resume resumes a paused playback.
	Resume(ctx context.Context, guildID snowflake.ID) error

	// Stop halts the current playback. The completion continuation for
	// the active attempt still fires.
	Stop(ctx context.Context, guildID snowflake.ID) error

	// SetVolume sets the playback volume, 0-100 percent.
	SetVolume(ctx context.Context, guildID snowflake.ID, percent int) error

	// IsConnected reports whether a voice connection exists for the guild.
	IsConnected(guildID snowflake.ID) bool
}

// VoiceStateProvider reads Discord voice state, used to find which channel
// a summoning user is in.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns the channel the user occupies, or 0.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}
