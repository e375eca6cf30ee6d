package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/disgoorg/snowflake/v2"
	"gorm.io/gorm"

	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// Ensure GormCatalogRepository implements CatalogRepository.
var _ domain.CatalogRepository = (*GormCatalogRepository)(nil)

// GormCatalogRepository is the SQLite-backed saved-reference catalog.
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository.
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// Find returns the entry with the given name, or ErrNotFound.
func (r *GormCatalogRepository) Find(
	ctx context.Context,
	guildID snowflake.ID,
	name string,
) (domain.MediaReference, error) {
	var record catalogRecord
	err := r.db.WithContext(ctx).
		Where("guild_id = ? AND name = ?", guildID, name).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.MediaReference{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.MediaReference{}, fmt.Errorf("failed to find catalog entry: %w", err)
	}
	return record.toDomain(), nil
}

// Insert persists a new entry. Returns ErrDuplicateName when the name is
// already taken in the guild.
func (r *GormCatalogRepository) Insert(
	ctx context.Context,
	guildID snowflake.ID,
	entry domain.MediaReference,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&catalogRecord{}).
			Where("guild_id = ? AND name = ?", guildID, entry.Name).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check catalog entry: %w", err)
		}
		if count > 0 {
			return domain.ErrDuplicateName
		}

		record := entryToRecord(guildID, entry)
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to insert catalog entry: %w", err)
		}
		return nil
	})
}

// Delete removes the entry with the given name, or returns ErrNotFound.
func (r *GormCatalogRepository) Delete(
	ctx context.Context,
	guildID snowflake.ID,
	name string,
) error {
	result := r.db.WithContext(ctx).
		Where("guild_id = ? AND name = ?", guildID, name).
		Delete(&catalogRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete catalog entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Rename changes an entry's name. Returns ErrNotFound when oldName is
// absent and ErrDuplicateName when newName is already taken.
func (r *GormCatalogRepository) Rename(
	ctx context.Context,
	guildID snowflake.ID,
	oldName, newName string,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&catalogRecord{}).
			Where("guild_id = ? AND name = ?", guildID, newName).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check catalog entry: %w", err)
		}
		if count > 0 {
			return domain.ErrDuplicateName
		}

		result := tx.Model(&catalogRecord{}).
			Where("guild_id = ? AND name = ?", guildID, oldName).
			Update("name", newName)
		if result.Error != nil {
			return fmt.Errorf("failed to rename catalog entry: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// ListAll yields every entry in the guild ordered by name. Each range over
// the sequence re-runs the query.
func (r *GormCatalogRepository) ListAll(
	ctx context.Context,
	guildID snowflake.ID,
) iter.Seq2[domain.MediaReference, error] {
	return func(yield func(domain.MediaReference, error) bool) {
		rows, err := r.db.WithContext(ctx).
			Model(&catalogRecord{}).
			Where("guild_id = ?", guildID).
			Order("name ASC").
			Rows()
		if err != nil {
			yield(domain.MediaReference{}, fmt.Errorf("failed to list catalog entries: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var record catalogRecord
			if err := r.db.ScanRows(rows, &record); err != nil {
				yield(domain.MediaReference{}, fmt.Errorf("failed to scan catalog row: %w", err))
				return
			}
			if !yield(record.toDomain(), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.MediaReference{}, fmt.Errorf("failed to iterate catalog rows: %w", err))
		}
	}
}
