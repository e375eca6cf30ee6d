package presentation

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/djbot/internal/bot"
	"github.com/sglre6355/djbot/internal/modules/moderation/application"
)

const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// discordPurger implements application.MessagePurger on a live session.
type discordPurger struct {
	session *discordgo.Session
}

func (p *discordPurger) RecentMessageIDs(channelID string, limit int) ([]string, error) {
	messages, err := p.session.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	return ids, nil
}

func (p *discordPurger) DeleteMessages(channelID string, messageIDs []string) error {
	return p.session.ChannelMessagesBulkDelete(channelID, messageIDs)
}

// ClearHandler handles the /clear command.
type ClearHandler struct {
	interactor *application.ClearInteractor
}

// NewClearHandler creates a ClearHandler backed by the live session.
func NewClearHandler(session *discordgo.Session) *ClearHandler {
	return &ClearHandler{
		interactor: application.NewClearInteractor(&discordPurger{session: session}),
	}
}

// NewClearHandlerWithPurger creates a ClearHandler with a custom purger.
func NewClearHandlerWithPurger(purger application.MessagePurger) *ClearHandler {
	return &ClearHandler{
		interactor: application.NewClearInteractor(purger),
	}
}

// Handle processes the /clear command.
func (h *ClearHandler) Handle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	count := 10
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "count" {
			count = int(opt.IntValue())
		}
	}

	result, err := h.interactor.Execute(i.ChannelID, count)
	if err != nil {
		return r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{
					{
						Title:       "Error",
						Description: err.Error(),
						Color:       colorError,
					},
				},
			},
		})
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: fmt.Sprintf("Deleted %d message(s).", result.Deleted),
					Color:       colorSuccess,
				},
			},
		},
	})
}
