package usecases

import (
	"context"
	"fmt"
	"iter"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/djbot/internal/modules/discjockey/application/ports"
	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// SaveInput contains the input for the Save use case.
type SaveInput struct {
	GuildID     snowflake.ID
	Name        string
	URL         string
	Description string
	CreatedBy   snowflake.ID
}

// SaveOutput contains the result of the Save use case.
type SaveOutput struct {
	Entry domain.MediaReference
}

// RenameInput contains the input for the Rename use case.
type RenameInput struct {
	GuildID snowflake.ID
	OldName string
	NewName string
}

// CatalogService manages the guild's collection of saved media references.
type CatalogService struct {
	catalog  domain.CatalogRepository
	resolver ports.MediaResolver
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	catalog domain.CatalogRepository,
	resolver ports.MediaResolver,
) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		resolver: resolver,
	}
}

// Save resolves the URL and stores a named entry. The name is truncated to
// the catalog limit; an empty description defaults to the sanitized title.
// Returns domain.ErrInvalidReference, domain.ErrResolutionFailed or
// domain.ErrDuplicateName.
func (c *CatalogService) Save(ctx context.Context, input SaveInput) (*SaveOutput, error) {
	if err := domain.ValidateReference(input.URL); err != nil {
		return nil, err
	}

	resolved, err := c.resolver.Resolve(ctx, input.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrResolutionFailed, err)
	}

	entry := domain.NewMediaReference(
		input.Name,
		input.URL,
		input.Description,
		input.CreatedBy,
		metadataFrom(resolved),
	)

	if err := c.catalog.Insert(ctx, input.GuildID, entry); err != nil {
		return nil, err
	}

	return &SaveOutput{Entry: entry}, nil
}

// Delete removes the named entry, or returns domain.ErrNotFound.
func (c *CatalogService) Delete(ctx context.Context, guildID snowflake.ID, name string) error {
	return c.catalog.Delete(ctx, guildID, name)
}

// Rename changes an entry's name, truncating the new name to the catalog
// limit. Returns domain.ErrNotFound or domain.ErrDuplicateName.
func (c *CatalogService) Rename(ctx context.Context, input RenameInput) error {
	return c.catalog.Rename(ctx, input.GuildID, input.OldName, domain.TruncateName(input.NewName))
}

// Info returns the named entry for display.
func (c *CatalogService) Info(
	ctx context.Context,
	guildID snowflake.ID,
	name string,
) (domain.MediaReference, error) {
	return c.catalog.Find(ctx, guildID, name)
}

// List yields every saved entry in the guild, ordered by name.
func (c *CatalogService) List(
	ctx context.Context,
	guildID snowflake.ID,
) iter.Seq2[domain.MediaReference, error] {
	return c.catalog.ListAll(ctx, guildID)
}
