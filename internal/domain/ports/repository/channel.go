package repository

import "context"

// ChannelRepository stores the ordered list of channels users must join.
type ChannelRepository interface {
	List(ctx context.Context) ([]string, error)
	// Add reports false when the channel was already listed.
	Add(ctx context.Context, channel string) (bool, error)
	// Remove reports false when the channel was not listed.
	Remove(ctx context.Context, channel string) (bool, error)
}
