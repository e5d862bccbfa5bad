package adapter

import "context"

// MembershipOracle answers whether a user belongs to a channel.
// A user who is not a member yields false, nil; errors are transport failures.
type MembershipOracle interface {
	IsMember(ctx context.Context, userID int64, channel string) (bool, error)
}
