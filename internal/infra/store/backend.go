package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/config"
	"telegram-reward-bot/internal/domain/ports/repository"
	"telegram-reward-bot/internal/infra/db/postgres"
	"telegram-reward-bot/internal/infra/db/sqlite"
	"telegram-reward-bot/internal/infra/store/jsonfile"
)

// Backend is the set of repositories behind one storage driver.
type Backend struct {
	Driver   string
	Accounts repository.AccountRepository
	Admins   repository.AdminRepository
	Channels repository.ChannelRepository

	// Pool is set for the postgres driver only.
	Pool *pgxpool.Pool

	closeFn func() error
}

// Open selects the driver named in cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, db config.DatabaseConfig, logger *zerolog.Logger) (*Backend, error) {
	switch cfg.Driver {
	case "jsonfile":
		fs, err := jsonfile.Open(cfg.Dir, logger)
		if err != nil {
			return nil, fmt.Errorf("jsonfile: %w", err)
		}
		return &Backend{
			Driver:   cfg.Driver,
			Accounts: fs.Accounts(),
			Admins:   fs.Admins(),
			Channels: fs.Channels(),
		}, nil

	case "sqlite":
		sdb, err := sqlite.New(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver:   cfg.Driver,
			Accounts: sdb.Accounts(),
			Admins:   sdb.Admins(),
			Channels: sdb.Channels(),
			closeFn:  sdb.Close,
		}, nil

	case "postgres":
		pool, err := postgres.Connect(ctx, &db)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Backend{
			Driver:   cfg.Driver,
			Accounts: postgres.NewAccountRepo(pool),
			Admins:   postgres.NewAdminRepo(pool),
			Channels: postgres.NewChannelRepo(pool),
			Pool:     pool,
			closeFn:  func() error { pool.Close(); return nil },
		}, nil
	}
	return nil, fmt.Errorf("storage driver %q is not supported", cfg.Driver)
}

func (b *Backend) Close() error {
	if b == nil || b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}
