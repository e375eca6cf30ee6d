package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/disgoorg/snowflake/v2"
)

const (
	// MaxNameLength is the longest a catalog entry name may be. Longer
	// names are truncated on save, never rejected.
	MaxNameLength = 15

	// MaxDescriptionLength caps descriptions derived from track titles.
	MaxDescriptionLength = 30
)

// MediaMetadata is the resolver-provided description of a playable stream.
// It is persisted alongside the reference so that a saved entry can be
// replayed and displayed without re-resolving.
type MediaMetadata struct {
	Title           string
	DurationSeconds int
	IsLive          bool
	Thumbnail       string
	Tags            []string
	ViewCount       int64
	LikeCount       int64
	Source          string // e.g. "youtube", "soundcloud"
	StreamRef       string // opaque playable handle from the resolver
}

// MediaReference is a named, reusable pointer to playable media. Catalog
// entries are MediaReferences; queue jobs embed a copy of one as payload.
type MediaReference struct {
	Name        string
	URL         string
	Description string
	CreatedBy   snowflake.ID
	CreatedAt   time.Time
	Metadata    MediaMetadata
}

// NewMediaReference builds a catalog entry. The name is truncated to
// MaxNameLength and an empty description defaults to the sanitized title.
func NewMediaReference(
	name, rawURL, description string,
	createdBy snowflake.ID,
	meta MediaMetadata,
) MediaReference {
	if description == "" {
		description = SanitizeDescription(meta.Title)
	}
	return MediaReference{
		Name:        TruncateName(name),
		URL:         rawURL,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
		Metadata:    meta,
	}
}

// NewAdHocReference builds a payload for a URL that was enqueued without
// being saved to the catalog. The name is derived from the resolved title.
func NewAdHocReference(rawURL string, requestedBy snowflake.ID, meta MediaMetadata) MediaReference {
	return MediaReference{
		Name:        DeriveName(meta.Title),
		URL:         rawURL,
		Description: SanitizeDescription(meta.Title),
		CreatedBy:   requestedBy,
		CreatedAt:   time.Now().UTC(),
		Metadata:    meta,
	}
}

// ValidateReference checks that raw is a parsable URL with a scheme.
// Returns ErrInvalidReference otherwise.
func ValidateReference(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ErrInvalidReference
	}
	return nil
}

// TruncateName caps a user-supplied name at MaxNameLength.
func TruncateName(name string) string {
	runes := []rune(name)
	if len(runes) > MaxNameLength {
		return string(runes[:MaxNameLength])
	}
	return name
}

// DeriveName produces a queue-display name from a track title: the
// lowercased ASCII letters of the title, capped at MaxNameLength.
func DeriveName(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
		if b.Len() >= MaxNameLength {
			break
		}
	}
	return b.String()
}

// SanitizeDescription keeps the printable prefix of a title, capped at
// MaxDescriptionLength.
func SanitizeDescription(title string) string {
	var b strings.Builder
	for _, r := range title {
		if b.Len() >= MaxDescriptionLength {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsPrint(r) || r == ' ') {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// FormattedDuration returns the duration as mm:ss or hh:mm:ss, or "LIVE"
// for live streams.
func (m MediaMetadata) FormattedDuration() string {
	if m.IsLive {
		return "LIVE"
	}

	hours := m.DurationSeconds / 3600
	minutes := (m.DurationSeconds % 3600) / 60
	seconds := m.DurationSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
