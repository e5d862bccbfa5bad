package adapter

import (
	"context"

	"telegram-reward-bot/internal/domain/model"
)

// AccountSyncNotifier pushes account snapshots to the companion web app.
// Notify must not block the caller and never reports failure.
type AccountSyncNotifier interface {
	Notify(ctx context.Context, snapshot model.UserAccount)
}
