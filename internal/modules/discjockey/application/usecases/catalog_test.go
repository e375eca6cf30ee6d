package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

func newTestCatalogService() (*CatalogService, *mockCatalogRepo, *mockResolver) {
	catalog := newMockCatalogRepo()
	resolver := newMockResolver()
	service := NewCatalogService(catalog, resolver)
	return service, catalog, resolver
}

func TestCatalogSave(t *testing.T) {
	service, _, resolver := newTestCatalogService()
	ctx := context.Background()

	url := "https://example.com/watch?v=abc"
	resolver.results[url] = resolvedMedia("A Rather Long Track Title Here", "encoded:abc")

	output, err := service.Save(ctx, SaveInput{
		GuildID:   testGuild,
		Name:      "a name that is far too long",
		URL:       url,
		CreatedBy: 42,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if got := len([]rune(output.Entry.Name)); got > domain.MaxNameLength {
		t.Errorf("expected name truncated to %d, got %d runes", domain.MaxNameLength, got)
	}
	if output.Entry.Description == "" {
		t.Error("expected description to default to the title")
	}
	if got := len(output.Entry.Description); got > domain.MaxDescriptionLength {
		t.Errorf("expected description capped at %d, got %d", domain.MaxDescriptionLength, got)
	}
	if output.Entry.Metadata.StreamRef != "encoded:abc" {
		t.Error("expected resolved metadata persisted with the entry")
	}
}

func TestCatalogSaveDuplicate(t *testing.T) {
	service, _, resolver := newTestCatalogService()
	ctx := context.Background()

	url := "https://example.com/watch?v=abc"
	resolver.results[url] = resolvedMedia("Title", "encoded:abc")

	input := SaveInput{GuildID: testGuild, Name: "dup", URL: url}
	if _, err := service.Save(ctx, input); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if _, err := service.Save(ctx, input); !errors.Is(err, domain.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCatalogSaveInvalidURL(t *testing.T) {
	service, _, _ := newTestCatalogService()

	_, err := service.Save(context.Background(), SaveInput{
		GuildID: testGuild,
		Name:    "bad",
		URL:     "not a url",
	})
	if !errors.Is(err, domain.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestCatalogSaveResolutionFailure(t *testing.T) {
	service, catalog, _ := newTestCatalogService()
	ctx := context.Background()

	_, err := service.Save(ctx, SaveInput{
		GuildID: testGuild,
		Name:    "ghost",
		URL:     "https://example.com/unknown",
	})
	if !errors.Is(err, domain.ErrResolutionFailed) {
		t.Errorf("expected ErrResolutionFailed, got %v", err)
	}

	if _, err := catalog.Find(ctx, testGuild, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("expected nothing stored when resolution fails")
	}
}

func TestCatalogRename(t *testing.T) {
	service, catalog, _ := newTestCatalogService()
	ctx := context.Background()

	catalog.Insert(ctx, testGuild, domain.MediaReference{Name: "old"})

	err := service.Rename(ctx, RenameInput{
		GuildID: testGuild,
		OldName: "old",
		NewName: "a new name that is too long",
	})
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	// The new name is truncated to the catalog limit before storing.
	truncated := domain.TruncateName("a new name that is too long")
	if _, err := catalog.Find(ctx, testGuild, truncated); err != nil {
		t.Errorf("expected entry under truncated name %q: %v", truncated, err)
	}
}

func TestCatalogRenameErrors(t *testing.T) {
	service, catalog, _ := newTestCatalogService()
	ctx := context.Background()

	catalog.Insert(ctx, testGuild, domain.MediaReference{Name: "a"})
	catalog.Insert(ctx, testGuild, domain.MediaReference{Name: "b"})

	err := service.Rename(ctx, RenameInput{GuildID: testGuild, OldName: "missing", NewName: "c"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	err = service.Rename(ctx, RenameInput{GuildID: testGuild, OldName: "a", NewName: "b"})
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCatalogDeleteAndInfo(t *testing.T) {
	service, catalog, _ := newTestCatalogService()
	ctx := context.Background()

	catalog.Insert(ctx, testGuild, domain.MediaReference{Name: "entry", URL: "https://example.com"})

	entry, err := service.Info(ctx, testGuild, "entry")
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if entry.URL != "https://example.com" {
		t.Errorf("unexpected entry URL %q", entry.URL)
	}

	if err := service.Delete(ctx, testGuild, "entry"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := service.Delete(ctx, testGuild, "entry"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestCatalogListOrderedByName(t *testing.T) {
	service, catalog, _ := newTestCatalogService()
	ctx := context.Background()

	catalog.Insert(ctx, testGuild, domain.MediaReference{Name: "charlie"})
	catalog.Insert(ctx, testGuild, domain.MediaReference{Name: "alpha"})
	catalog.Insert(ctx, testGuild, domain.MediaReference{Name: "bravo"})

	var names []string
	for entry, err := range service.List(ctx, testGuild) {
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		names = append(names, entry.Name)
	}

	want := []string{"alpha", "bravo", "charlie"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected order %v, got %v", want, names)
		}
	}
}
