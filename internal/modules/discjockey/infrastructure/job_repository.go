package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"gorm.io/gorm"

	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// Ensure GormJobRepository implements JobRepository.
var _ domain.JobRepository = (*GormJobRepository)(nil)

// GormJobRepository is the SQLite-backed job queue.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository.
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// Insert persists a new job and returns it with its assigned ID.
func (r *GormJobRepository) Insert(ctx context.Context, job domain.Job) (domain.Job, error) {
	record := jobToRecord(job)
	record.ID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return domain.Job{}, fmt.Errorf("failed to insert job: %w", err)
	}
	return record.toDomain(), nil
}

// ClaimNext atomically claims the oldest queued job in the guild. The
// candidate is selected first, then claimed with a conditional update that
// re-checks the job is still unstarted; losing the race to another claimer
// just moves on to the next candidate.
func (r *GormJobRepository) ClaimNext(
	ctx context.Context,
	guildID snowflake.ID,
) (domain.Job, error) {
	for {
		var record jobRecord
		err := r.db.WithContext(ctx).
			Where("guild_id = ? AND start_time IS NULL", guildID).
			Order("created_on ASC, id ASC").
			First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Job{}, domain.ErrQueueEmpty
		}
		if err != nil {
			return domain.Job{}, fmt.Errorf("failed to select next job: %w", err)
		}

		now := time.Now().UTC()
		result := r.db.WithContext(ctx).
			Model(&jobRecord{}).
			Where("id = ? AND start_time IS NULL", record.ID).
			Update("start_time", now)
		if result.Error != nil {
			return domain.Job{}, fmt.Errorf("failed to claim job: %w", result.Error)
		}
		if result.RowsAffected == 1 {
			record.StartTime = &now
			return record.toDomain(), nil
		}
		// Someone else claimed it between select and update; try again.
	}
}

// MarkFinished sets the job's EndTime and error note. Finishing an
// already-finished job is a no-op.
func (r *GormJobRepository) MarkFinished(
	ctx context.Context,
	id domain.JobID,
	errNote string,
) error {
	result := r.db.WithContext(ctx).
		Model(&jobRecord{}).
		Where("id = ? AND end_time IS NULL", int64(id)).
		Updates(map[string]any{
			"end_time":   time.Now().UTC(),
			"error_note": errNote,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark job %d finished: %w", id, result.Error)
	}
	return nil
}

// Remove deletes all jobs matching the filter and reports how many rows
// were deleted.
func (r *GormJobRepository) Remove(
	ctx context.Context,
	guildID snowflake.ID,
	filter domain.JobFilter,
) (int64, error) {
	result := r.filtered(ctx, guildID, filter).Delete(&jobRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to remove jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Count reports how many jobs match the filter.
func (r *GormJobRepository) Count(
	ctx context.Context,
	guildID snowflake.ID,
	filter domain.JobFilter,
) (int64, error) {
	var count int64
	if err := r.filtered(ctx, guildID, filter).Model(&jobRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

func (r *GormJobRepository) filtered(
	ctx context.Context,
	guildID snowflake.ID,
	filter domain.JobFilter,
) *gorm.DB {
	query := r.db.WithContext(ctx).Where("guild_id = ?", guildID)
	if filter.PayloadName != "" {
		query = query.Where("payload_name = ?", filter.PayloadName)
	}
	if filter.UnstartedOnly {
		query = query.Where("start_time IS NULL")
	}
	return query
}

// ListOrdered yields the guild's jobs ordered by creation time. Each range
// over the sequence re-runs the query.
func (r *GormJobRepository) ListOrdered(
	ctx context.Context,
	guildID snowflake.ID,
) iter.Seq2[domain.Job, error] {
	return func(yield func(domain.Job, error) bool) {
		rows, err := r.db.WithContext(ctx).
			Model(&jobRecord{}).
			Where("guild_id = ?", guildID).
			Order("created_on ASC, id ASC").
			Rows()
		if err != nil {
			yield(domain.Job{}, fmt.Errorf("failed to list jobs: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var record jobRecord
			if err := r.db.ScanRows(rows, &record); err != nil {
				yield(domain.Job{}, fmt.Errorf("failed to scan job row: %w", err))
				return
			}
			if !yield(record.toDomain(), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Job{}, fmt.Errorf("failed to iterate job rows: %w", err))
		}
	}
}

// ResetAll clears the timestamps and error notes on every job in the
// guild, re-queueing the whole list in its original order.
func (r *GormJobRepository) ResetAll(ctx context.Context, guildID snowflake.ID) error {
	result := r.db.WithContext(ctx).
		Model(&jobRecord{}).
		Where("guild_id = ?", guildID).
		Updates(map[string]any{
			"start_time": nil,
			"end_time":   nil,
			"error_note": "",
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reset jobs: %w", result.Error)
	}
	return nil
}

// IsExhausted reports whether no queued job remains in the guild.
func (r *GormJobRepository) IsExhausted(
	ctx context.Context,
	guildID snowflake.ID,
) (bool, error) {
	count, err := r.Count(ctx, guildID, domain.JobFilter{UnstartedOnly: true})
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// SweepOrphaned finishes every job stuck in Playing state across all
// guilds, recording the given note.
func (r *GormJobRepository) SweepOrphaned(ctx context.Context, errNote string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&jobRecord{}).
		Where("start_time IS NOT NULL AND end_time IS NULL").
		Updates(map[string]any{
			"end_time":   time.Now().UTC(),
			"error_note": errNote,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep orphaned jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
