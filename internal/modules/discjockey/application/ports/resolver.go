package ports

import "context"

// ResolvedMedia is the resolver's answer for one reference: display
// metadata plus the opaque stream handle the voice session plays.
type ResolvedMedia struct {
	Title           string
	StreamRef       string
	DurationSeconds int
	IsLive          bool
	Thumbnail       string
	Tags            []string
	ViewCount       int64
	LikeCount       int64
	Source          string
}

// MediaResolver turns a URL or search reference into playable stream
// metadata. Implementations enforce their own timeout; a timeout or miss
// surfaces as domain.ErrResolutionFailed from the caller's perspective.
type MediaResolver interface {
	Resolve(ctx context.Context, reference string) (*ResolvedMedia, error)
}
