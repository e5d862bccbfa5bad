package repository

import "context"

// AdminRepository stores the set of Telegram ids allowed to run admin commands.
type AdminRepository interface {
	List(ctx context.Context) ([]int64, error)
	Contains(ctx context.Context, id int64) (bool, error)
	// Add reports false when id was already present.
	Add(ctx context.Context, id int64) (bool, error)
}
