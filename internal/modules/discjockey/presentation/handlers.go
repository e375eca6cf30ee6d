package presentation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/djbot/internal/bot"
	"github.com/sglre6355/djbot/internal/modules/discjockey/application/ports"
	"github.com/sglre6355/djbot/internal/modules/discjockey/application/usecases"
	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// maxListLines caps how many queue or catalog rows a single embed shows.
const maxListLines = 25

// Handlers holds the /dj subcommand handlers.
type Handlers struct {
	controller *usecases.PlaybackController
	queue      *usecases.QueueService
	catalog    *usecases.CatalogService
	voiceState ports.VoiceStateProvider
}

// NewHandlers creates new Handlers.
func NewHandlers(
	controller *usecases.PlaybackController,
	queue *usecases.QueueService,
	catalog *usecases.CatalogService,
	voiceState ports.VoiceStateProvider,
) *Handlers {
	return &Handlers{
		controller: controller,
		queue:      queue,
		catalog:    catalog,
		voiceState: voiceState,
	}
}

// HandleDJ dispatches the /dj subcommands.
func (h *Handlers) HandleDJ(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	sub := options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "play":
		return h.handlePlay(i, r, guildID, opts)
	case "queue":
		return h.handleQueue(r, guildID)
	case "enq":
		return h.handleEnqueue(i, r, guildID, opts["media"].StringValue())
	case "deq":
		return h.handleDequeue(r, guildID, opts["name"].StringValue())
	case "skip":
		return h.handleSkip(r, guildID)
	case "stop":
		return h.handleStop(r, guildID)
	case "pause":
		return h.handlePause(r, guildID)
	case "resume":
		return h.handleResume(r, guildID)
	case "replay":
		return h.handleReplay(r, guildID)
	case "volume":
		return h.handleVolume(r, guildID, int(opts["percent"].IntValue()))
	case "summon":
		return h.handleSummon(i, r, guildID)
	case "dismiss":
		return h.handleDismiss(r, guildID)
	case "save":
		return h.handleSave(i, r, guildID, opts)
	case "delete":
		return h.handleDelete(r, guildID, opts["name"].StringValue())
	case "rename":
		return h.handleRename(r, guildID, opts["old"].StringValue(), opts["new"].StringValue())
	case "info":
		return h.handleInfo(r, guildID, opts["name"].StringValue())
	case "list":
		return h.handleList(r, guildID)
	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *Handlers) handlePlay(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	guildID snowflake.ID,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption,
) error {
	channelID, msg := h.userVoiceChannel(i, guildID)
	if msg != "" {
		return respondError(r, msg)
	}

	ctx := context.Background()
	if err := h.controller.Summon(ctx, guildID, channelID); err != nil {
		return respondError(r, errorMessage(err))
	}

	if opt, ok := opts["query"]; ok {
		if err := h.enqueueQuery(ctx, i, guildID, opt.StringValue()); err != nil {
			return respondError(r, errorMessage(err))
		}
	}

	// Paused playback picks up where it left off instead of claiming a
	// new job.
	if h.controller.Status(guildID) == domain.StatusPaused {
		if err := h.controller.Resume(ctx, guildID); err != nil {
			return respondError(r, errorMessage(err))
		}
		return respondSuccess(r, "Resumed.")
	}

	job, err := h.controller.EnsureStarted(ctx, guildID)
	if errors.Is(err, domain.ErrQueueEmpty) {
		return respondSuccess(r, "Connected. The queue is empty, add something with `/dj enq`.")
	}
	if err != nil {
		return respondError(r, errorMessage(err))
	}
	if job == nil {
		return respondSuccess(r, "Already playing.")
	}
	return respondSuccess(r, fmt.Sprintf("Now playing **%s**.", job.Payload.Description))
}

func (h *Handlers) handleQueue(r bot.Responder, guildID snowflake.ID) error {
	var sb strings.Builder
	count := 0
	overflow := 0

	for job, err := range h.queue.List(context.Background(), guildID) {
		if err != nil {
			return respondError(r, errorMessage(err))
		}
		count++
		if count > maxListLines {
			overflow++
			continue
		}

		marker := ""
		switch job.State() {
		case domain.JobStatePlaying:
			marker = " ▶" // playing indicator
		case domain.JobStatePlayed:
			marker = " ✓"
		}
		fmt.Fprintf(&sb, "%d\\. **%s** - %s [%s]%s\n",
			count,
			job.Payload.Name,
			job.Payload.Description,
			job.Payload.Metadata.FormattedDuration(),
			marker,
		)
	}

	if count == 0 {
		return respondEmbed(r, "Queue", "The queue is empty.")
	}
	if overflow > 0 {
		fmt.Fprintf(&sb, "... and %d more\n", overflow)
	}
	return respondEmbed(r, "Queue", sb.String())
}

func (h *Handlers) handleEnqueue(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	guildID snowflake.ID,
	media string,
) error {
	ctx := context.Background()

	// A parsable URL is enqueued ad hoc; anything else is a catalog lookup.
	if domain.ValidateReference(media) == nil {
		userID, _ := snowflake.Parse(i.Member.User.ID)
		output, err := h.queue.EnqueueByURL(ctx, usecases.EnqueueByURLInput{
			GuildID:     guildID,
			URL:         media,
			RequestedBy: userID,
		})
		if err != nil {
			return respondError(r, errorMessage(err))
		}
		return respondSuccess(r,
			fmt.Sprintf("Queued **%s**.", output.Job.Payload.Description))
	}

	output, err := h.queue.EnqueueByName(ctx, usecases.EnqueueByNameInput{
		GuildID: guildID,
		Name:    media,
	})
	if errors.Is(err, domain.ErrNotFound) {
		return respondError(r, fmt.Sprintf("No saved entry named **%s**.", media))
	}
	if err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r,
		fmt.Sprintf("Queued **%s**.", output.Job.Payload.Name))
}

func (h *Handlers) handleDequeue(r bot.Responder, guildID snowflake.ID, name string) error {
	output, err := h.queue.DequeueByName(context.Background(), usecases.DequeueByNameInput{
		GuildID: guildID,
		Name:    name,
	})
	if errors.Is(err, domain.ErrNotFound) {
		return respondError(r, fmt.Sprintf("Nothing named **%s** is queued.", name))
	}
	if err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r,
		fmt.Sprintf("Removed %d queued job(s) named **%s**.", output.Removed, name))
}

func (h *Handlers) handleSkip(r bot.Responder, guildID snowflake.ID) error {
	if err := h.controller.Skip(context.Background(), guildID); err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r, "Skipped.")
}

func (h *Handlers) handleStop(r bot.Responder, guildID snowflake.ID) error {
	removed, err := h.controller.Stop(context.Background(), guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r,
		fmt.Sprintf("Stopped playback and cleared %d job(s) from the queue.", removed))
}

func (h *Handlers) handlePause(r bot.Responder, guildID snowflake.ID) error {
	if err := h.controller.Pause(context.Background(), guildID); err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r, "Paused.")
}

func (h *Handlers) handleResume(r bot.Responder, guildID snowflake.ID) error {
	if err := h.controller.Resume(context.Background(), guildID); err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r, "Resumed.")
}

func (h *Handlers) handleReplay(r bot.Responder, guildID snowflake.ID) error {
	restarted, err := h.controller.RestartIfExhausted(context.Background(), guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}
	if !restarted {
		return respondError(r, "The queue still has unplayed jobs.")
	}
	return respondSuccess(r, "Replaying the queue from the top.")
}

func (h *Handlers) handleVolume(r bot.Responder, guildID snowflake.ID, percent int) error {
	if err := h.controller.SetVolume(context.Background(), guildID, percent); err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r, fmt.Sprintf("Volume set to %d%%.", percent))
}

func (h *Handlers) handleSummon(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	guildID snowflake.ID,
) error {
	channelID, msg := h.userVoiceChannel(i, guildID)
	if msg != "" {
		return respondError(r, msg)
	}

	if err := h.controller.Summon(context.Background(), guildID, channelID); err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r, fmt.Sprintf("Connected to <#%d>.", channelID))
}

func (h *Handlers) handleDismiss(r bot.Responder, guildID snowflake.ID) error {
	if err := h.controller.Dismiss(context.Background(), guildID); err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r, "Disconnected.")
}

func (h *Handlers) handleSave(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	guildID snowflake.ID,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption,
) error {
	description := ""
	if opt, ok := opts["description"]; ok {
		description = opt.StringValue()
	}

	userID, _ := snowflake.Parse(i.Member.User.ID)
	output, err := h.catalog.Save(context.Background(), usecases.SaveInput{
		GuildID:     guildID,
		Name:        opts["name"].StringValue(),
		URL:         opts["url"].StringValue(),
		Description: description,
		CreatedBy:   userID,
	})
	if err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r, fmt.Sprintf("Saved **%s**.", output.Entry.Name))
}

func (h *Handlers) handleDelete(r bot.Responder, guildID snowflake.ID, name string) error {
	if err := h.catalog.Delete(context.Background(), guildID, name); err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r, fmt.Sprintf("Deleted **%s**.", name))
}

func (h *Handlers) handleRename(
	r bot.Responder,
	guildID snowflake.ID,
	oldName, newName string,
) error {
	err := h.catalog.Rename(context.Background(), usecases.RenameInput{
		GuildID: guildID,
		OldName: oldName,
		NewName: newName,
	})
	if err != nil {
		return respondError(r, errorMessage(err))
	}
	return respondSuccess(r,
		fmt.Sprintf("Renamed **%s** to **%s**.", oldName, domain.TruncateName(newName)))
}

func (h *Handlers) handleInfo(r bot.Responder, guildID snowflake.ID, name string) error {
	entry, err := h.catalog.Info(context.Background(), guildID, name)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	embed := &discordgo.MessageEmbed{
		Title:       entry.Name,
		Description: entry.Description,
		URL:         entry.URL,
		Color:       colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Title", Value: orDash(entry.Metadata.Title), Inline: true},
			{Name: "Duration", Value: entry.Metadata.FormattedDuration(), Inline: true},
			{Name: "Source", Value: orDash(entry.Metadata.Source), Inline: true},
			{Name: "Saved by", Value: fmt.Sprintf("<@%d>", entry.CreatedBy), Inline: true},
		},
	}
	if entry.Metadata.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: entry.Metadata.Thumbnail}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func (h *Handlers) handleList(r bot.Responder, guildID snowflake.ID) error {
	var sb strings.Builder
	count := 0
	overflow := 0

	for entry, err := range h.catalog.List(context.Background(), guildID) {
		if err != nil {
			return respondError(r, errorMessage(err))
		}
		count++
		if count > maxListLines {
			overflow++
			continue
		}
		fmt.Fprintf(&sb, "**%s** - %s [%s]\n",
			entry.Name,
			entry.Description,
			entry.Metadata.FormattedDuration(),
		)
	}

	if count == 0 {
		return respondEmbed(r, "Saved entries", "Nothing saved yet. Use `/dj save`.")
	}
	if overflow > 0 {
		fmt.Fprintf(&sb, "... and %d more\n", overflow)
	}
	return respondEmbed(r, "Saved entries", sb.String())
}

// enqueueQuery adds a catalog entry by name, falling back to an ad-hoc
// URL enqueue when no entry matches and the query parses as a URL.
func (h *Handlers) enqueueQuery(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	guildID snowflake.ID,
	query string,
) error {
	_, err := h.queue.EnqueueByName(ctx, usecases.EnqueueByNameInput{
		GuildID: guildID,
		Name:    query,
	})
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if domain.ValidateReference(query) != nil {
		return err
	}

	userID, _ := snowflake.Parse(i.Member.User.ID)
	_, err = h.queue.EnqueueByURL(ctx, usecases.EnqueueByURLInput{
		GuildID:     guildID,
		URL:         query,
		RequestedBy: userID,
	})
	return err
}

// userVoiceChannel resolves the voice channel the invoking user is in.
// A non-empty message means the lookup failed and the message should be
// shown to the user as is.
func (h *Handlers) userVoiceChannel(
	i *discordgo.InteractionCreate,
	guildID snowflake.ID,
) (snowflake.ID, string) {
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return 0, "Invalid user"
	}

	channelID, err := h.voiceState.GetUserVoiceChannel(guildID, userID)
	if err != nil || channelID == 0 {
		return 0, "Join a voice channel first."
	}
	return channelID, ""
}

// errorMessage maps domain errors to user-facing text.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "No such entry."
	case errors.Is(err, domain.ErrDuplicateName):
		return "That name is already taken."
	case errors.Is(err, domain.ErrInvalidReference):
		return "That doesn't look like a valid URL."
	case errors.Is(err, domain.ErrResolutionFailed):
		return "Could not resolve that media."
	case errors.Is(err, domain.ErrNoActiveSession):
		return "I'm not in a voice channel. Use `/dj summon` first."
	case errors.Is(err, domain.ErrQueueEmpty):
		return "The queue is empty."
	default:
		return err.Error()
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func optionMap(
	options []*discordgo.ApplicationCommandInteractionDataOption,
) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// Response helpers.

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func respondSuccess(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondEmbed(r bot.Responder, title, description string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       colorSuccess,
				},
			},
		},
	})
}
