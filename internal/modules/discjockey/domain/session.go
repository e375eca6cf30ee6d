package domain

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// PlaybackStatus is the in-memory state of a guild's voice session.
type PlaybackStatus int

const (
	StatusIdle     PlaybackStatus = iota // connected, nothing playing
	StatusAwaiting                       // claim/resolve/play-start in flight
	StatusPlaying
	StatusPaused
)

// String returns a human-readable representation of the status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusAwaiting:
		return "awaiting"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

// PlaybackSession tracks the single active playback slot for one guild.
// Queue contents live only in the job store; the session holds just the
// transient voice-side state: status, voice channel and the active job id.
// All transitions are guarded by the session's own mutex so the enqueue
// path and the completion-callback path can race safely.
type PlaybackSession struct {
	mu             sync.Mutex
	guildID        snowflake.ID
	voiceChannelID snowflake.ID
	status         PlaybackStatus
	activeJobID    JobID // 0 when no job is claimed by this session
}

// NewPlaybackSession creates an idle session for the guild.
func NewPlaybackSession(guildID, voiceChannelID snowflake.ID) *PlaybackSession {
	return &PlaybackSession{
		guildID:        guildID,
		voiceChannelID: voiceChannelID,
	}
}

// GuildID returns the owning guild. Never modified after construction.
func (s *PlaybackSession) GuildID() snowflake.ID {
	return s.guildID
}

// VoiceChannelID returns the connected voice channel.
func (s *PlaybackSession) VoiceChannelID() snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceChannelID
}

// SetVoiceChannelID records a channel move.
func (s *PlaybackSession) SetVoiceChannelID(channelID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceChannelID = channelID
}

// Status returns the current playback status.
func (s *PlaybackSession) Status() PlaybackStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ActiveJobID returns the claimed job id, or 0.
func (s *PlaybackSession) ActiveJobID() JobID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeJobID
}

// TryBeginStart attempts the Idle -> Awaiting transition. Returns false
// when the session is already starting, playing or paused, which makes
// re-entering the play-next chain a no-op rather than a double claim.
func (s *PlaybackSession) TryBeginStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusIdle {
		return false
	}
	s.status = StatusAwaiting
	return true
}

// AbortStart rolls Awaiting back to Idle after a failed claim or play.
func (s *PlaybackSession) AbortStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusAwaiting {
		s.status = StatusIdle
		s.activeJobID = 0
	}
}

// MarkPlaying completes the Awaiting -> Playing transition for a job.
func (s *PlaybackSession) MarkPlaying(id JobID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusPlaying
	s.activeJobID = id
}

// MarkPaused transitions Playing -> Paused. Returns false otherwise.
func (s *PlaybackSession) MarkPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPlaying {
		return false
	}
	s.status = StatusPaused
	return true
}

// MarkResumed transitions Paused -> Playing. Returns false otherwise.
func (s *PlaybackSession) MarkResumed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPaused {
		return false
	}
	s.status = StatusPlaying
	return true
}

// Finish releases the active slot after a completion signal for the given
// job. Stale signals for a different job leave the session untouched.
func (s *PlaybackSession) Finish(id JobID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeJobID != id {
		return
	}
	s.activeJobID = 0
	s.status = StatusIdle
}

// Reset forces the session back to Idle regardless of current state.
// Used by stop, which tears playback down explicitly.
func (s *PlaybackSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeJobID = 0
	s.status = StatusIdle
}

// SessionRegistry owns the per-guild playback sessions. Only the playback
// controller creates and removes sessions.
type SessionRegistry interface {
	// Get returns the session for the guild, or nil when none exists.
	Get(guildID snowflake.ID) *PlaybackSession

	// GetOrCreate returns the guild's session, creating an idle one bound
	// to the given voice channel when absent.
	GetOrCreate(guildID, voiceChannelID snowflake.ID) *PlaybackSession

	// Delete removes the guild's session.
	Delete(guildID snowflake.ID)
}
