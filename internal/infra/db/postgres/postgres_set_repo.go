package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-reward-bot/internal/domain/ports/repository"
)

var (
	_ repository.AdminRepository   = (*PostgresAdminRepo)(nil)
	_ repository.ChannelRepository = (*PostgresChannelRepo)(nil)
)

type PostgresAdminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *PostgresAdminRepo {
	return &PostgresAdminRepo{pool: pool}
}

func (r *PostgresAdminRepo) List(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM admins ORDER BY created_at, id;`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresAdminRepo) Contains(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := pickRow(ctx, r.pool, nil, `SELECT EXISTS(SELECT 1 FROM admins WHERE id=$1);`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("admin lookup: %w", err)
	}
	return ok, nil
}

func (r *PostgresAdminRepo) Add(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `INSERT INTO admins (id) VALUES ($1) ON CONFLICT (id) DO NOTHING;`, id)
	if err != nil {
		return false, fmt.Errorf("add admin: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

type PostgresChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *PostgresChannelRepo {
	return &PostgresChannelRepo{pool: pool}
}

func (r *PostgresChannelRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT handle FROM channels ORDER BY seq;`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresChannelRepo) Add(ctx context.Context, channel string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `INSERT INTO channels (handle) VALUES ($1) ON CONFLICT (handle) DO NOTHING;`, channel)
	if err != nil {
		return false, fmt.Errorf("add channel: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresChannelRepo) Remove(ctx context.Context, channel string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE handle=$1;`, channel)
	if err != nil {
		return false, fmt.Errorf("remove channel: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
