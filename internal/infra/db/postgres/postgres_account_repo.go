package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/domain/ports/repository"
)

var _ repository.AccountRepository = (*PostgresAccountRepo)(nil)

type PostgresAccountRepo struct {
	pool *pgxpool.Pool
	tx   *TxManager
}

func NewAccountRepo(pool *pgxpool.Pool) *PostgresAccountRepo {
	return &PostgresAccountRepo{pool: pool, tx: NewTxManager(pool)}
}

const selectAccount = `
SELECT id, balance, referral_count, referred_by, joined_channels,
       last_claim_date, claimed_one_time, wallet_address, created_at, updated_at
  FROM accounts`

func scanAccount(row pgx.Row) (*model.UserAccount, error) {
	var a model.UserAccount
	if err := row.Scan(&a.ID, &a.Balance, &a.ReferralCount, &a.ReferredBy, &a.HasJoinedRequiredChannels,
		&a.LastClaimDate, &a.ClaimedOneTimeReward, &a.WalletAddress, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresAccountRepo) FindByID(ctx context.Context, id int64) (*model.UserAccount, error) {
	acc, err := scanAccount(pickRow(ctx, r.pool, nil, selectAccount+` WHERE id=$1;`, id))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account %d: %w", id, err)
	}
	return acc, nil
}

// Save upserts every account in one transaction. referred_by is never
// replaced once set.
func (r *PostgresAccountRepo) Save(ctx context.Context, accounts ...*model.UserAccount) error {
	if len(accounts) == 0 {
		return nil
	}
	return r.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		for _, a := range accounts {
			if err := r.upsert(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresAccountRepo) upsert(ctx context.Context, qx any, a *model.UserAccount) error {
	if a == nil || a.ID <= 0 {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO accounts (
  id, balance, referral_count, referred_by, joined_channels,
  last_claim_date, claimed_one_time, wallet_address, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (id) DO UPDATE SET
  balance=$2, referral_count=$3, referred_by=COALESCE(accounts.referred_by, $4),
  joined_channels=$5, last_claim_date=$6, claimed_one_time=$7, wallet_address=$8, updated_at=$10;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = a.UpdatedAt
	}
	_, err = ex.Exec(ctx, q, a.ID, a.Balance, a.ReferralCount, a.ReferredBy, a.HasJoinedRequiredChannels,
		a.LastClaimDate, a.ClaimedOneTimeReward, a.WalletAddress, created, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save account %d: %w", a.ID, err)
	}
	return nil
}

func (r *PostgresAccountRepo) List(ctx context.Context) ([]*model.UserAccount, error) {
	rows, err := r.pool.Query(ctx, selectAccount+` ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*model.UserAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresAccountRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := pickRow(ctx, r.pool, nil, `SELECT COUNT(*) FROM accounts;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
