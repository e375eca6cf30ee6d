package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

// fakeModule is a minimal Module for framework tests, shaped like the
// playback and moderation modules this bot ships.
type fakeModule struct {
	name          string
	commands      []*discordgo.ApplicationCommand
	handlers      map[string]InteractionHandler
	eventHandlers []EventHandler
	initCalls     int
	initErr       error
	shutErr       error
}

func (m *fakeModule) Name() string                                   { return m.name }
func (m *fakeModule) Commands() []*discordgo.ApplicationCommand      { return m.commands }
func (m *fakeModule) CommandHandlers() map[string]InteractionHandler { return m.handlers }
func (m *fakeModule) EventHandlers() []EventHandler                  { return m.eventHandlers }
func (m *fakeModule) Shutdown() error                                { return m.shutErr }

func (m *fakeModule) Init(ModuleDependencies) error {
	m.initCalls++
	return m.initErr
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()

	reg.Register(&fakeModule{name: "discjockey"})

	modules := reg.Modules()
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}
	if modules[0].Name() != "discjockey" {
		t.Errorf("expected module discjockey, got %q", modules[0].Name())
	}
}

func TestRegistryRegisterMultiple(t *testing.T) {
	reg := NewRegistry()

	reg.Register(&fakeModule{name: "discjockey"})
	reg.Register(&fakeModule{name: "moderation"})

	if got := len(reg.Modules()); got != 2 {
		t.Fatalf("expected 2 modules, got %d", got)
	}
}

func TestRegistryModulesReturnsSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeModule{name: "discjockey"})

	modules := reg.Modules()
	reg.Register(&fakeModule{name: "moderation"})

	// The earlier snapshot must not grow with later registrations.
	if len(modules) != 1 {
		t.Errorf("expected snapshot of 1 module, got %d", len(modules))
	}
}

func TestGlobalRegistry(t *testing.T) {
	ResetGlobalRegistry()
	defer ResetGlobalRegistry()

	Register(&fakeModule{name: "discjockey"})

	modules := Modules()
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}
	if modules[0].Name() != "discjockey" {
		t.Errorf("expected module discjockey, got %q", modules[0].Name())
	}
}
