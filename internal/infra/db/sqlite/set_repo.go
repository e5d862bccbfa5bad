package sqlite

import (
	"context"
	"fmt"
	"time"

	"telegram-reward-bot/internal/domain/ports/repository"
)

var (
	_ repository.AdminRepository   = (*AdminRepo)(nil)
	_ repository.ChannelRepository = (*ChannelRepo)(nil)
)

type AdminRepo struct {
	db *DB
}

func (r *AdminRepo) List(ctx context.Context) ([]int64, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT id FROM admins ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list admins: %w", err)
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

func (r *AdminRepo) Contains(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM admins WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: admin lookup: %w", err)
	}
	return exists, nil
}

func (r *AdminRepo) Add(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO admins (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		id, formatTime(time.Now()))
	if err != nil {
		return false, fmt.Errorf("sqlite: add admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type ChannelRepo struct {
	db *DB
}

func (r *ChannelRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT handle FROM channels ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list channels: %w", err)
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

func (r *ChannelRepo) Add(ctx context.Context, channel string) (bool, error) {
	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO channels (handle) VALUES (?) ON CONFLICT(handle) DO NOTHING`, channel)
	if err != nil {
		return false, fmt.Errorf("sqlite: add channel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *ChannelRepo) Remove(ctx context.Context, channel string) (bool, error) {
	res, err := r.db.conn.ExecContext(ctx, `DELETE FROM channels WHERE handle = ?`, channel)
	if err != nil {
		return false, fmt.Errorf("sqlite: remove channel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
