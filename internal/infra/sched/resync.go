package sched

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/infra/logging"
)

type accountLister interface {
	ListAccounts(ctx context.Context) ([]*model.UserAccount, error)
}

type snapshotPusher interface {
	Push(ctx context.Context, snapshot model.UserAccount) error
}

// ResyncJob pushes every account to the web app, repairing pushes lost while
// the web app was unreachable.
type ResyncJob struct {
	accounts accountLister
	pusher   snapshotPusher
	log      *zerolog.Logger
}

func NewResyncJob(accounts accountLister, pusher snapshotPusher, logger *zerolog.Logger) *ResyncJob {
	return &ResyncJob{accounts: accounts, pusher: pusher, log: logging.Component(logger, "ResyncJob")}
}

// Run pushes accounts in id order. Individual failures do not stop the run;
// they are joined into the returned error.
func (j *ResyncJob) Run(ctx context.Context) error {
	_, err := j.Sync(ctx)
	return err
}

// Sync reports how many accounts were pushed.
func (j *ResyncJob) Sync(ctx context.Context) (int, error) {
	accs, err := j.accounts.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	var (
		pushed int
		errs   []error
	)
	for _, acc := range accs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := j.pusher.Push(ctx, *acc); err != nil {
			errs = append(errs, fmt.Errorf("push %d: %w", acc.ID, err))
			continue
		}
		pushed++
	}
	j.log.Info().Int("pushed", pushed).Int("total", len(accs)).Int("failed", len(errs)).Msg("resync finished")
	return pushed, errors.Join(errs...)
}
