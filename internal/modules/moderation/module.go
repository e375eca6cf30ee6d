package moderation

import (
	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/djbot/internal/bot"
	"github.com/sglre6355/djbot/internal/modules/moderation/presentation"
)

func init() {
	bot.Register(&ModerationModule{})
}

// ModerationModule provides channel housekeeping commands.
type ModerationModule struct {
	clearHandler *presentation.ClearHandler
}

// Name returns the module name.
func (m *ModerationModule) Name() string {
	return "moderation"
}

// Commands returns the slash commands for this module.
func (m *ModerationModule) Commands() []*discordgo.ApplicationCommand {
	manageMessages := int64(discordgo.PermissionManageMessages)
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "clear",
			Description:              "Delete recent messages from this channel",
			DefaultMemberPermissions: &manageMessages,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "count",
					Description: "How many messages to delete (default 10)",
					Required:    false,
					MinValue:    floatPtr(1),
					MaxValue:    100,
				},
			},
		},
	}
}

// CommandHandlers returns the command handlers for this module.
func (m *ModerationModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"clear": m.clearHandler.Handle,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *ModerationModule) EventHandlers() []bot.EventHandler {
	return nil
}

// Init initializes the module.
func (m *ModerationModule) Init(deps bot.ModuleDependencies) error {
	m.clearHandler = presentation.NewClearHandler(deps.Session)
	return nil
}

// Shutdown cleans up module resources.
func (m *ModerationModule) Shutdown() error {
	return nil
}

func floatPtr(f float64) *float64 {
	return &f
}
