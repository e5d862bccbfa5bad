package repository

import (
	"context"

	"telegram-reward-bot/internal/domain/model"
)

// -----------------------------
// Accounts
// -----------------------------

// AccountRepository persists UserAccounts. Save is all-or-nothing across the
// accounts passed in one call.
type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*model.UserAccount, error)
	Save(ctx context.Context, accounts ...*model.UserAccount) error
	List(ctx context.Context) ([]*model.UserAccount, error)
	Count(ctx context.Context) (int, error)
}
