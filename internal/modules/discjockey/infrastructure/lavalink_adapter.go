package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/djbot/internal/modules/discjockey/application/ports"
	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

const (
	// voiceConnectionTimeout is the maximum time to wait for a voice
	// connection to be established.
	voiceConnectionTimeout = 10 * time.Second

	// DefaultResolveTimeout bounds a single resolver round trip.
	DefaultResolveTimeout = 15 * time.Second
)

// Ensure LavalinkAdapter implements the port interfaces.
var (
	_ ports.VoiceSession  = (*LavalinkAdapter)(nil)
	_ ports.MediaResolver = (*LavalinkAdapter)(nil)
)

// voiceHandshake collects the pair of Discord voice events a guild needs
// before Lavalink can be told about the connection. Discord sends
// VoiceStateUpdate and VoiceServerUpdate in either order; forwarding a
// partial pair produces a broken player, so both are buffered here and
// forwarded together.
type voiceHandshake struct {
	mu sync.Mutex

	// ready is armed by JoinChannel and closed once both events arrive.
	ready chan struct{}

	hasState  bool
	channelID *snowflake.ID
	sessionID string

	hasServer bool
	token     string
	endpoint  string
}

// arm installs a fresh ready channel for a JoinChannel call to wait on.
func (h *voiceHandshake) arm() chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = make(chan struct{})
	return h.ready
}

func (h *voiceHandshake) signalLocked() {
	if h.ready == nil {
		return
	}
	select {
	case <-h.ready:
	default:
		close(h.ready)
	}
}

// applyState records a VoiceStateUpdate and returns the complete pair when
// both halves are present, resetting the buffer.
func (h *voiceHandshake) applyState(
	channelID *snowflake.ID,
	sessionID string,
) (complete bool, chID *snowflake.ID, sessID, token, endpoint string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hasState = true
	h.channelID = channelID
	h.sessionID = sessionID

	return h.takeLocked()
}

// applyServer records a VoiceServerUpdate, symmetric with applyState.
func (h *voiceHandshake) applyServer(
	token, endpoint string,
) (complete bool, chID *snowflake.ID, sessID, tok, ep string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hasServer = true
	h.token = token
	h.endpoint = endpoint

	return h.takeLocked()
}

func (h *voiceHandshake) takeLocked() (bool, *snowflake.ID, string, string, string) {
	if !h.hasState || !h.hasServer {
		return false, nil, "", "", ""
	}

	channelID, sessionID, token, endpoint := h.channelID, h.sessionID, h.token, h.endpoint
	h.hasState = false
	h.hasServer = false
	h.channelID = nil
	h.sessionID = ""
	h.token = ""
	h.endpoint = ""
	h.signalLocked()

	return true, channelID, sessionID, token, endpoint
}

// LavalinkAdapter wraps DisGoLink behind the voice session and media
// resolver ports. One adapter serves every guild; per-guild state is the
// voice handshake buffer and the job bound to the active playback attempt.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	mu         sync.Mutex
	handshakes map[snowflake.ID]*voiceHandshake
	activeJobs map[snowflake.ID]domain.JobID

	resolveTimeout time.Duration
	bus            ports.CompletionPublisher
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address        string
	Password       string
	ResolveTimeout time.Duration
}

// NewLavalinkAdapter connects to the Lavalink node and wires the track
// lifecycle listeners. Completion continuations flow out through bus.
func NewLavalinkAdapter(
	session *discordgo.Session,
	config LavalinkConfig,
	bus ports.CompletionPublisher,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	if config.ResolveTimeout <= 0 {
		config.ResolveTimeout = DefaultResolveTimeout
	}

	adapter := &LavalinkAdapter{
		session:        session,
		botID:          botID,
		handshakes:     make(map[snowflake.ID]*voiceHandshake),
		activeJobs:     make(map[snowflake.ID]domain.JobID),
		resolveTimeout: config.ResolveTimeout,
		bus:            bus,
	}

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)
	adapter.link = link

	node, err := link.AddNode(context.Background(), disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// Close shuts down the DisGoLink client.
func (a *LavalinkAdapter) Close() {
	a.link.Close()
}

func (a *LavalinkAdapter) handshake(guildID snowflake.ID) *voiceHandshake {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.handshakes[guildID]
	if !ok {
		h = &voiceHandshake{}
		a.handshakes[guildID] = h
	}
	return h
}

// JoinChannel connects to a voice channel, blocking until Discord has
// delivered both halves of the voice handshake.
func (a *LavalinkAdapter) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	ready := a.handshake(guildID).arm()

	err := a.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, false)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return fmt.Errorf("timeout waiting for voice connection")
	}
}

// LeaveChannel destroys the guild's player and disconnects from voice.
func (a *LavalinkAdapter) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	if player := a.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	a.mu.Lock()
	delete(a.activeJobs, guildID)
	delete(a.handshakes, guildID)
	a.mu.Unlock()

	if err := a.session.ChannelVoiceJoinManual(guildID.String(), "", false, false); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// Play starts a playback attempt for the job. The jobID stays bound to the
// attempt until onTrackEnd publishes its completion.
func (a *LavalinkAdapter) Play(
	ctx context.Context,
	guildID snowflake.ID,
	jobID domain.JobID,
	streamRef string,
) error {
	player := a.link.Player(guildID)

	a.mu.Lock()
	a.activeJobs[guildID] = jobID
	a.mu.Unlock()

	if err := player.Update(ctx, lavalink.WithEncodedTrack(streamRef)); err != nil {
		a.mu.Lock()
		delete(a.activeJobs, guildID)
		a.mu.Unlock()
		return fmt.Errorf("failed to start playback: %w", err)
	}
	return nil
}

// Stop halts the current playback. Lavalink still emits a track end event,
// so the completion continuation fires as usual.
func (a *LavalinkAdapter) Stop(ctx context.Context, guildID snowflake.ID) error {
	player := a.link.Player(guildID)
	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// Pause pauses the current playback.
func (a *LavalinkAdapter) Pause(ctx context.Context, guildID snowflake.ID) error {
	player := a.link.Player(guildID)
	if err := player.Update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	return nil
}

// Resume resumes a paused playback.
func (a *LavalinkAdapter) Resume(ctx context.Context, guildID snowflake.ID) error {
	player := a.link.Player(guildID)
	if err := player.Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	return nil
}

// SetVolume sets the player volume, 0-100 percent.
func (a *LavalinkAdapter) SetVolume(ctx context.Context, guildID snowflake.ID, percent int) error {
	player := a.link.Player(guildID)
	if err := player.Update(ctx, lavalink.WithVolume(percent)); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// IsConnected reports whether the guild has a live voice connection.
func (a *LavalinkAdapter) IsConnected(guildID snowflake.ID) bool {
	player := a.link.ExistingPlayer(guildID)
	return player != nil && player.ChannelID() != nil
}

// Resolve loads the reference through the Lavalink node and returns the
// first playable track. A playlist resolves to its first entry.
func (a *LavalinkAdapter) Resolve(
	ctx context.Context,
	reference string,
) (*ports.ResolvedMedia, error) {
	node := a.link.BestNode()
	if node == nil {
		return nil, fmt.Errorf("no available Lavalink node")
	}

	ctx, cancel := context.WithTimeout(ctx, a.resolveTimeout)
	defer cancel()

	result, err := node.LoadTracks(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	switch data := result.Data.(type) {
	case lavalink.Track:
		return resolvedFromTrack(data), nil

	case lavalink.Playlist:
		if len(data.Tracks) == 0 {
			return nil, domain.ErrResolutionFailed
		}
		return resolvedFromTrack(data.Tracks[0]), nil

	case lavalink.Search:
		if len(data) == 0 {
			return nil, domain.ErrResolutionFailed
		}
		return resolvedFromTrack(data[0]), nil

	case lavalink.Exception:
		return nil, fmt.Errorf("%w: %s", domain.ErrResolutionFailed, data.Message)

	default:
		return nil, domain.ErrResolutionFailed
	}
}

func resolvedFromTrack(track lavalink.Track) *ports.ResolvedMedia {
	info := track.Info
	thumbnail := ""
	if info.ArtworkURL != nil {
		thumbnail = *info.ArtworkURL
	}

	return &ports.ResolvedMedia{
		Title:           info.Title,
		StreamRef:       track.Encoded,
		DurationSeconds: int(time.Duration(info.Length) * time.Millisecond / time.Second),
		IsLive:          info.IsStream,
		Thumbnail:       thumbnail,
		Source:          info.SourceName,
	}
}

// OnVoiceServerUpdate handles Discord voice server updates. Must be wired
// as a discordgo event handler.
func (a *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	h := a.handshake(guildID)
	if complete, channelID, sessionID, token, endpoint := h.applyServer(event.Token, event.Endpoint); complete {
		a.forwardVoiceEvents(guildID, channelID, sessionID, token, endpoint)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates for the bot user.
// Must be wired as a discordgo event handler.
func (a *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != a.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	// An empty channel ID means the bot is disconnecting; Lavalink can be
	// told immediately, no server update will follow.
	if event.ChannelID == "" {
		a.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		a.mu.Lock()
		delete(a.handshakes, guildID)
		a.mu.Unlock()
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	h := a.handshake(guildID)
	if complete, chID, sessionID, token, endpoint := h.applyState(&channelID, event.SessionID); complete {
		a.forwardVoiceEvents(guildID, chID, sessionID, token, endpoint)
	}
}

func (a *LavalinkAdapter) forwardVoiceEvents(
	guildID snowflake.ID,
	channelID *snowflake.ID,
	sessionID, token, endpoint string,
) {
	slog.Debug("forwarding voice handshake to Lavalink",
		"guild", guildID,
		"channel", channelID,
	)

	c := context.Background()
	a.link.OnVoiceStateUpdate(c, guildID, channelID, sessionID)
	a.link.OnVoiceServerUpdate(c, guildID, token, endpoint)
}

func (a *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (a *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	guildID := player.GuildID()
	slog.Debug("track ended", "guild", guildID, "reason", event.Reason)

	// A replaced track's successor already owns the active job binding.
	if event.Reason == lavalink.TrackEndReasonReplaced {
		return
	}

	a.mu.Lock()
	jobID, ok := a.activeJobs[guildID]
	delete(a.activeJobs, guildID)
	a.mu.Unlock()

	if !ok {
		return
	}

	var err error
	if event.Reason == lavalink.TrackEndReasonLoadFailed {
		err = fmt.Errorf("track load failed")
	}

	a.bus.PublishPlaybackFinished(domain.PlaybackFinishedEvent{
		GuildID: guildID,
		JobID:   jobID,
		Err:     err,
	})
}

func (a *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

func (a *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}
