package discjockey

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"

	"github.com/sglre6355/djbot/internal/bot"
	"github.com/sglre6355/djbot/internal/modules/discjockey/application"
	"github.com/sglre6355/djbot/internal/modules/discjockey/application/usecases"
	"github.com/sglre6355/djbot/internal/modules/discjockey/infrastructure"
	"github.com/sglre6355/djbot/internal/modules/discjockey/presentation"
)

func init() {
	bot.Register(&DiscJockeyModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*DiscJockeyModule)(nil)

// DiscJockeyModule provides the per-guild media queue and playback commands.
type DiscJockeyModule struct {
	config   *Config
	handlers *presentation.Handlers

	eventBus          *infrastructure.ChannelEventBus
	lavalinkAdapter   *infrastructure.LavalinkAdapter
	completionHandler *application.CompletionEventHandler
}

// Name returns the module name.
func (m *DiscJockeyModule) Name() string {
	return "discjockey"
}

// Commands returns the slash commands for this module.
func (m *DiscJockeyModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *DiscJockeyModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"dj": m.handlers.HandleDJ,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *DiscJockeyModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(_ *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			if m.lavalinkAdapter != nil {
				m.lavalinkAdapter.OnVoiceServerUpdate(event)
			}
		},
		func(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			if m.lavalinkAdapter != nil {
				m.lavalinkAdapter.OnVoiceStateUpdate(event)
			}
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *DiscJockeyModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module: opens the store, connects to Lavalink, and
// wires the services together.
func (m *DiscJockeyModule) Init(deps bot.ModuleDependencies) error {
	db, err := infrastructure.OpenStore(m.config.DatabasePath)
	if err != nil {
		return err
	}

	jobs := infrastructure.NewGormJobRepository(db)
	catalog := infrastructure.NewGormCatalogRepository(db)
	sessions := infrastructure.NewMemorySessionRegistry()

	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	adapter, err := infrastructure.NewLavalinkAdapter(deps.Session, infrastructure.LavalinkConfig{
		Address:        m.config.LavalinkAddress,
		Password:       m.config.LavalinkPassword,
		ResolveTimeout: m.config.ResolveTimeout,
	}, m.eventBus)
	if err != nil {
		return err
	}
	m.lavalinkAdapter = adapter

	controller := usecases.NewPlaybackController(jobs, sessions, adapter, adapter)
	queue := usecases.NewQueueService(jobs, catalog, adapter, controller)
	catalogService := usecases.NewCatalogService(catalog, adapter)

	m.completionHandler = application.NewCompletionEventHandler(controller, m.eventBus)
	m.completionHandler.Start()

	// Jobs a previous process claimed but never finished would block the
	// single-active invariant forever; finish them before taking commands.
	if err := controller.SweepOrphans(context.Background()); err != nil {
		return err
	}

	voiceState := infrastructure.NewDiscordVoiceStateProvider(deps.Session)
	m.handlers = presentation.NewHandlers(controller, queue, catalogService, voiceState)

	slog.Info("discjockey module initialized", "database", m.config.DatabasePath)
	return nil
}

// Shutdown cleans up module resources.
func (m *DiscJockeyModule) Shutdown() error {
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}
	return nil
}
