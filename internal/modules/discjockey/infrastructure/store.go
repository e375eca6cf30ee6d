package infrastructure

import (
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// OpenStore opens (or creates) the SQLite document store and migrates the
// job and catalog tables.
func OpenStore(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}

	if err := db.AutoMigrate(&jobRecord{}, &catalogRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	return db, nil
}

// mediaMetadataRecord is the persisted resolver metadata block, shared by
// job payloads and catalog entries.
type mediaMetadataRecord struct {
	Title           string
	DurationSeconds int
	IsLive          bool
	Thumbnail       string
	Tags            []string `gorm:"serializer:json"`
	ViewCount       int64
	LikeCount       int64
	Source          string
	StreamRef       string
}

// mediaPayloadRecord is the copy of a media reference embedded in a job
// row under payload_-prefixed columns.
type mediaPayloadRecord struct {
	Name        string `gorm:"size:15"`
	URL         string
	Description string
	CreatedBy   snowflake.ID
	CreatedAt   time.Time
	Meta        mediaMetadataRecord `gorm:"embedded"`
}

// jobRecord is the wire shape of a queue job. The nullable start/end
// timestamps encode the Queued/Playing/Played lifecycle; claiming and
// finishing are conditional updates against them.
type jobRecord struct {
	ID        int64        `gorm:"primaryKey;autoIncrement"`
	GuildID   snowflake.ID `gorm:"index:idx_jobs_guild_created"`
	CreatedOn time.Time    `gorm:"index:idx_jobs_guild_created"`
	Priority  int
	StartTime *time.Time `gorm:"index"`
	EndTime   *time.Time
	ErrorNote string
	Payload   mediaPayloadRecord `gorm:"embedded;embeddedPrefix:payload_"`
}

func (jobRecord) TableName() string { return "jobs" }

// catalogRecord is the wire shape of a saved media reference. The
// (guild_id, name) unique index backs duplicate-name detection.
type catalogRecord struct {
	ID          int64        `gorm:"primaryKey;autoIncrement"`
	GuildID     snowflake.ID `gorm:"uniqueIndex:idx_catalog_guild_name"`
	Name        string       `gorm:"size:15;uniqueIndex:idx_catalog_guild_name"`
	URL         string
	Description string
	CreatedBy   snowflake.ID
	CreatedAt   time.Time
	Meta        mediaMetadataRecord `gorm:"embedded"`
}

func (catalogRecord) TableName() string { return "catalog_entries" }

func metadataToRecord(m domain.MediaMetadata) mediaMetadataRecord {
	return mediaMetadataRecord{
		Title:           m.Title,
		DurationSeconds: m.DurationSeconds,
		IsLive:          m.IsLive,
		Thumbnail:       m.Thumbnail,
		Tags:            m.Tags,
		ViewCount:       m.ViewCount,
		LikeCount:       m.LikeCount,
		Source:          m.Source,
		StreamRef:       m.StreamRef,
	}
}

func (r mediaMetadataRecord) toDomain() domain.MediaMetadata {
	return domain.MediaMetadata{
		Title:           r.Title,
		DurationSeconds: r.DurationSeconds,
		IsLive:          r.IsLive,
		Thumbnail:       r.Thumbnail,
		Tags:            r.Tags,
		ViewCount:       r.ViewCount,
		LikeCount:       r.LikeCount,
		Source:          r.Source,
		StreamRef:       r.StreamRef,
	}
}

func jobToRecord(j domain.Job) jobRecord {
	return jobRecord{
		ID:        int64(j.ID),
		GuildID:   j.GuildID,
		CreatedOn: j.CreatedOn,
		Priority:  j.Priority,
		StartTime: j.StartTime,
		EndTime:   j.EndTime,
		ErrorNote: j.ErrorNote,
		Payload: mediaPayloadRecord{
			Name:        j.Payload.Name,
			URL:         j.Payload.URL,
			Description: j.Payload.Description,
			CreatedBy:   j.Payload.CreatedBy,
			CreatedAt:   j.Payload.CreatedAt,
			Meta:        metadataToRecord(j.Payload.Metadata),
		},
	}
}

func (r jobRecord) toDomain() domain.Job {
	return domain.Job{
		ID:        domain.JobID(r.ID),
		GuildID:   r.GuildID,
		CreatedOn: r.CreatedOn,
		Priority:  r.Priority,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		ErrorNote: r.ErrorNote,
		Payload: domain.MediaReference{
			Name:        r.Payload.Name,
			URL:         r.Payload.URL,
			Description: r.Payload.Description,
			CreatedBy:   r.Payload.CreatedBy,
			CreatedAt:   r.Payload.CreatedAt,
			Metadata:    r.Payload.Meta.toDomain(),
		},
	}
}

func entryToRecord(guildID snowflake.ID, e domain.MediaReference) catalogRecord {
	return catalogRecord{
		GuildID:     guildID,
		Name:        e.Name,
		URL:         e.URL,
		Description: e.Description,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		Meta:        metadataToRecord(e.Metadata),
	}
}

func (r catalogRecord) toDomain() domain.MediaReference {
	return domain.MediaReference{
		Name:        r.Name,
		URL:         r.URL,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		Metadata:    r.Meta.toDomain(),
	}
}
