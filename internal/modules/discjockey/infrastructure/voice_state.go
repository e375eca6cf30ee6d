package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/djbot/internal/modules/discjockey/application/ports"
)

// DiscordVoiceStateProvider reads voice state from the discordgo state
// cache. Summon uses it to find which channel the requesting user is in.
type DiscordVoiceStateProvider struct {
	session *discordgo.Session
}

// NewDiscordVoiceStateProvider creates a new DiscordVoiceStateProvider.
func NewDiscordVoiceStateProvider(session *discordgo.Session) *DiscordVoiceStateProvider {
	return &DiscordVoiceStateProvider{session: session}
}

// GetUserVoiceChannel returns the voice channel the user occupies, or 0
// when the user is not in any voice channel.
func (v *DiscordVoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (snowflake.ID, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to look up guild state: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID.String() && vs.ChannelID != "" {
			channelID, err := snowflake.Parse(vs.ChannelID)
			if err != nil {
				return 0, fmt.Errorf("failed to parse voice channel ID: %w", err)
			}
			return channelID, nil
		}
	}

	return 0, nil
}

// Ensure DiscordVoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*DiscordVoiceStateProvider)(nil)
