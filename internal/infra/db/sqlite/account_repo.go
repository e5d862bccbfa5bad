package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/domain/ports/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

type AccountRepo struct {
	db *DB
}

const accountColumns = `id, balance, referral_count, referred_by, joined_channels,
	last_claim_date, claimed_one_time, wallet_address, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*model.UserAccount, error) {
	var (
		a          model.UserAccount
		referredBy sql.NullInt64
		lastClaim  sql.NullString
		created    string
		updated    string
	)
	if err := row.Scan(&a.ID, &a.Balance, &a.ReferralCount, &referredBy, &a.HasJoinedRequiredChannels,
		&lastClaim, &a.ClaimedOneTimeReward, &a.WalletAddress, &created, &updated); err != nil {
		return nil, err
	}
	if referredBy.Valid {
		v := referredBy.Int64
		a.ReferredBy = &v
	}
	if lastClaim.Valid && lastClaim.String != "" {
		t, err := parseTime(lastClaim.String)
		if err != nil {
			return nil, fmt.Errorf("last_claim_date: %w", err)
		}
		a.LastClaimDate = &t
	}
	var err error
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	return &a, nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id int64) (*model.UserAccount, error) {
	row := r.db.conn.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find account %d: %w", id, err)
	}
	return acc, nil
}

// Save upserts the batch in one transaction.
func (r *AccountRepo) Save(ctx context.Context, accounts ...*model.UserAccount) error {
	if len(accounts) == 0 {
		return nil
	}
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			balance          = excluded.balance,
			referral_count   = excluded.referral_count,
			referred_by      = COALESCE(accounts.referred_by, excluded.referred_by),
			joined_channels  = excluded.joined_channels,
			last_claim_date  = excluded.last_claim_date,
			claimed_one_time = excluded.claimed_one_time,
			wallet_address   = excluded.wallet_address,
			updated_at       = excluded.updated_at`

	for _, a := range accounts {
		if a == nil || a.ID <= 0 {
			return domain.ErrInvalidArgument
		}
		var referredBy, lastClaim any
		if a.ReferredBy != nil {
			referredBy = *a.ReferredBy
		}
		if a.LastClaimDate != nil {
			lastClaim = formatTime(*a.LastClaimDate)
		}
		created, updated := a.CreatedAt, a.UpdatedAt
		if created.IsZero() {
			created = updated
		}
		if _, err := tx.ExecContext(ctx, q,
			a.ID, a.Balance, a.ReferralCount, referredBy, a.HasJoinedRequiredChannels,
			lastClaim, a.ClaimedOneTimeReward, a.WalletAddress,
			formatTime(created), formatTime(updated),
		); err != nil {
			return fmt.Errorf("sqlite: save account %d: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (r *AccountRepo) List(ctx context.Context) ([]*model.UserAccount, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list accounts: %w", err)
	}
	defer rows.Close()

	var out []*model.UserAccount
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan account: %w", err)
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (r *AccountRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count accounts: %w", err)
	}
	return n, nil
}
