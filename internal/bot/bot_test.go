package bot

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestNewBot(t *testing.T) {
	cfg := &Config{DiscordToken: "bot-token"}

	b := NewBot(cfg)
	if b == nil {
		t.Fatal("expected bot to be created, got nil")
	}
	if b.config != cfg {
		t.Error("expected config to be stored")
	}
}

func TestInitModules(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "bot-token"})

	playback := &fakeModule{name: "discjockey"}
	moderation := &fakeModule{name: "moderation"}
	b.modules = []Module{playback, moderation}

	if err := b.initModules(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if playback.initCalls != 1 || moderation.initCalls != 1 {
		t.Errorf("expected each module initialized once, got %d and %d",
			playback.initCalls, moderation.initCalls)
	}
}

func TestInitModulesReturnsError(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "bot-token"})

	initErr := errors.New("lavalink node unreachable")
	b.modules = []Module{&fakeModule{name: "discjockey", initErr: initErr}}

	if err := b.initModules(); !errors.Is(err, initErr) {
		t.Errorf("expected init error %v, got %v", initErr, err)
	}
}

func TestBuildHandlerMap(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "bot-token"})

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error {
		return nil
	}

	b.modules = []Module{
		&fakeModule{
			name:     "discjockey",
			handlers: map[string]InteractionHandler{"dj": handler},
		},
		&fakeModule{
			name:     "moderation",
			handlers: map[string]InteractionHandler{"clear": handler},
		},
	}

	b.buildHandlerMap()

	if len(b.handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(b.handlers))
	}
	for _, name := range []string{"dj", "clear"} {
		if _, ok := b.handlers[name]; !ok {
			t.Errorf("expected %q handler to be registered", name)
		}
	}
}

func TestCollectCommands(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "bot-token"})

	b.modules = []Module{
		&fakeModule{
			name: "discjockey",
			commands: []*discordgo.ApplicationCommand{
				{Name: "dj", Description: "Queue and play media"},
			},
		},
		&fakeModule{
			name: "moderation",
			commands: []*discordgo.ApplicationCommand{
				{Name: "clear", Description: "Bulk delete messages"},
			},
		},
	}

	commands := b.collectCommands()
	if len(commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(commands))
	}
	if commands[0].Name != "dj" || commands[1].Name != "clear" {
		t.Errorf("unexpected command order: %q, %q", commands[0].Name, commands[1].Name)
	}
}
