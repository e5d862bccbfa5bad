package main

import (
	"context"
	"fmt"

	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/infra/store"
)

const batchSize = 200

type report struct {
	Accounts int
	Admins   int
	Channels int
	Skipped  int // admins/channels already present in the target
}

// importLegacy copies every account, admin and channel from src into dst.
// Accounts are upserted in batches; set entries already present are skipped.
func importLegacy(ctx context.Context, src, dst *store.Backend, dryRun bool) (report, error) {
	var rep report

	accs, err := src.Accounts.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("read accounts: %w", err)
	}
	for start := 0; start < len(accs); start += batchSize {
		end := min(start+batchSize, len(accs))
		batch := accs[start:end]
		if !dryRun {
			if err := dst.Accounts.Save(ctx, batch...); err != nil {
				return rep, fmt.Errorf("write accounts %d-%d: %w", batch[0].ID, batch[len(batch)-1].ID, err)
			}
		}
		rep.Accounts += len(batch)
	}

	admins, err := src.Admins.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("read admins: %w", err)
	}
	for _, id := range admins {
		if dryRun {
			rep.Admins++
			continue
		}
		added, err := dst.Admins.Add(ctx, id)
		if err != nil {
			return rep, fmt.Errorf("write admin %d: %w", id, err)
		}
		if added {
			rep.Admins++
		} else {
			rep.Skipped++
		}
	}

	channels, err := src.Channels.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("read channels: %w", err)
	}
	for _, raw := range channels {
		ch, ok := model.NormalizeChannel(raw)
		if !ok {
			rep.Skipped++
			continue
		}
		if dryRun {
			rep.Channels++
			continue
		}
		added, err := dst.Channels.Add(ctx, ch)
		if err != nil {
			return rep, fmt.Errorf("write channel %s: %w", ch, err)
		}
		if added {
			rep.Channels++
		} else {
			rep.Skipped++
		}
	}
	return rep, nil
}
