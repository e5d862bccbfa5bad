package jsonfile

import (
	"context"
	"slices"

	"telegram-reward-bot/internal/domain/ports/repository"
)

var (
	_ repository.AdminRepository   = (*AdminRepo)(nil)
	_ repository.ChannelRepository = (*ChannelRepo)(nil)
)

type AdminRepo struct {
	s *Store
}

func (r *AdminRepo) List(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.load()
}

func (r *AdminRepo) load() ([]int64, error) {
	var ids []int64
	if err := r.s.load(AdminsFile, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *AdminRepo) Contains(ctx context.Context, id int64) (bool, error) {
	ids, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

func (r *AdminRepo) Add(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return false, err
	}
	if slices.Contains(ids, id) {
		return false, nil
	}
	if err := r.s.write(AdminsFile, append(ids, id)); err != nil {
		return false, err
	}
	return true, nil
}

type ChannelRepo struct {
	s *Store
}

func (r *ChannelRepo) load() ([]string, error) {
	var channels []string
	if err := r.s.load(ChannelsFile, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *ChannelRepo) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	channels, err := r.load()
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []string{}
	}
	return channels, nil
}

func (r *ChannelRepo) Add(ctx context.Context, channel string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	channels, err := r.load()
	if err != nil {
		return false, err
	}
	if slices.Contains(channels, channel) {
		return false, nil
	}
	if err := r.s.write(ChannelsFile, append(channels, channel)); err != nil {
		return false, err
	}
	return true, nil
}

func (r *ChannelRepo) Remove(ctx context.Context, channel string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	channels, err := r.load()
	if err != nil {
		return false, err
	}
	kept := slices.DeleteFunc(slices.Clone(channels), func(c string) bool { return c == channel })
	if len(kept) == len(channels) {
		return false, nil
	}
	if kept == nil {
		kept = []string{}
	}
	if err := r.s.write(ChannelsFile, kept); err != nil {
		return false, err
	}
	return true, nil
}
