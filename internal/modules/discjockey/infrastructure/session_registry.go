package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// MemorySessionRegistry is an in-memory implementation of SessionRegistry.
// Session state is transient by design: queue contents survive a restart
// in the job store, voice connections do not.
type MemorySessionRegistry struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]*domain.PlaybackSession
}

// NewMemorySessionRegistry creates a new MemorySessionRegistry.
func NewMemorySessionRegistry() *MemorySessionRegistry {
	return &MemorySessionRegistry{
		sessions: make(map[snowflake.ID]*domain.PlaybackSession),
	}
}

// Get returns the session for the guild, or nil when none exists.
func (r *MemorySessionRegistry) Get(guildID snowflake.ID) *domain.PlaybackSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[guildID]
}

// GetOrCreate returns the guild's session, creating an idle one when absent.
func (r *MemorySessionRegistry) GetOrCreate(
	guildID, voiceChannelID snowflake.ID,
) *domain.PlaybackSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[guildID]; ok {
		return sess
	}
	sess := domain.NewPlaybackSession(guildID, voiceChannelID)
	r.sessions[guildID] = sess
	return sess
}

// Delete removes the guild's session.
func (r *MemorySessionRegistry) Delete(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, guildID)
}

// Count returns the number of active sessions (for testing/monitoring).
func (r *MemorySessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Ensure MemorySessionRegistry implements SessionRegistry.
var _ domain.SessionRegistry = (*MemorySessionRegistry)(nil)
