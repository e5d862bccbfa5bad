//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/domain/model"
)

type staticAccounts struct {
	accs []*model.UserAccount
	err  error
}

func (s staticAccounts) ListAccounts(context.Context) ([]*model.UserAccount, error) {
	return s.accs, s.err
}

type recordingPusher struct {
	mu     sync.Mutex
	pushed []int64
	failOn int64
}

func (p *recordingPusher) Push(_ context.Context, snap model.UserAccount) error {
	if snap.ID == p.failOn {
		return errors.New("web app unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, snap.ID)
	return nil
}

func nopLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func TestResyncJob(t *testing.T) {
	accs := []*model.UserAccount{{ID: 1}, {ID: 2}, {ID: 3}}

	t.Run("should push every account", func(t *testing.T) {
		p := &recordingPusher{}
		n, err := NewResyncJob(staticAccounts{accs: accs}, p, nopLogger()).Sync(context.Background())
		if err != nil || n != 3 {
			t.Fatalf("got n=%d err=%v", n, err)
		}
		if len(p.pushed) != 3 || p.pushed[0] != 1 || p.pushed[2] != 3 {
			t.Errorf("unexpected pushes %v", p.pushed)
		}
	})

	t.Run("should keep going past a failed push", func(t *testing.T) {
		p := &recordingPusher{failOn: 2}
		n, err := NewResyncJob(staticAccounts{accs: accs}, p, nopLogger()).Sync(context.Background())
		if err == nil {
			t.Fatal("expected the failure to be reported")
		}
		if n != 2 || len(p.pushed) != 2 {
			t.Errorf("expected 2 successful pushes, got n=%d %v", n, p.pushed)
		}
	})

	t.Run("should surface listing errors", func(t *testing.T) {
		job := NewResyncJob(staticAccounts{err: errors.New("disk")}, &recordingPusher{}, nopLogger())
		if err := job.Run(context.Background()); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("should stop when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := &recordingPusher{}
		n, err := NewResyncJob(staticAccounts{accs: accs}, p, nopLogger()).Sync(ctx)
		if !errors.Is(err, context.Canceled) || n != 0 {
			t.Errorf("got n=%d err=%v", n, err)
		}
	})
}

func TestScheduler(t *testing.T) {
	t.Run("should reject a bad cron expression", func(t *testing.T) {
		s := NewScheduler(nopLogger())
		if err := s.Register("resync", "not a cron line", func(context.Context) error { return nil }); err == nil {
			t.Fatal("expected a parse error")
		}
	})

	t.Run("should run jobs until the context ends", func(t *testing.T) {
		s := NewScheduler(nopLogger())
		var runs atomic.Int32
		if err := s.Register("tick", "@every 1s", func(context.Context) error {
			runs.Add(1)
			return nil
		}); err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()

		deadline := time.Now().Add(3 * time.Second)
		for runs.Load() == 0 && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
		}
		cancel()
		if err := <-done; err != nil {
			t.Fatalf("run: %v", err)
		}
		if runs.Load() == 0 {
			t.Error("job never ran")
		}
	})
}
