package application

import "fmt"

// MaxClearCount is the most messages a single /clear call may delete,
// matching Discord's bulk delete limit.
const MaxClearCount = 100

// MessagePurger abstracts the Discord message deletion API for testing.
type MessagePurger interface {
	// RecentMessageIDs returns up to limit message IDs from the channel,
	// newest first.
	RecentMessageIDs(channelID string, limit int) ([]string, error)

	// DeleteMessages bulk-deletes the given messages from the channel.
	DeleteMessages(channelID string, messageIDs []string) error
}

// ClearInteractor deletes recent messages from a channel.
type ClearInteractor struct {
	purger MessagePurger
}

// NewClearInteractor creates a new ClearInteractor.
func NewClearInteractor(purger MessagePurger) *ClearInteractor {
	return &ClearInteractor{purger: purger}
}

// ClearResult reports how many messages were deleted.
type ClearResult struct {
	Deleted int
}

// Execute deletes up to count recent messages from the channel. A count
// outside 1..MaxClearCount is clamped.
func (c *ClearInteractor) Execute(channelID string, count int) (*ClearResult, error) {
	if count < 1 {
		count = 1
	}
	if count > MaxClearCount {
		count = MaxClearCount
	}

	ids, err := c.purger.RecentMessageIDs(channelID, count)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	if len(ids) == 0 {
		return &ClearResult{Deleted: 0}, nil
	}

	if err := c.purger.DeleteMessages(channelID, ids); err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}

	return &ClearResult{Deleted: len(ids)}, nil
}
