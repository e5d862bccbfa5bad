//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"telegram-reward-bot/internal/domain"
	"telegram-reward-bot/internal/domain/model"
	"telegram-reward-bot/internal/usecase"
)

func newAdminUC(admins *MockAdminRepo, channels *MockChannelRepo, accounts *MockAccountRepo) usecase.AdminUseCase {
	return usecase.NewAdminUseCase(admins, channels, accounts, usecase.NewLocalLocker(), newTestLogger())
}

func TestAdminUseCase_ChannelAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject non-admin executors without mutating the list", func(t *testing.T) {
		channels := NewMockChannelRepo()
		uc := newAdminUC(NewMockAdminRepo(1), channels, NewMockAccountRepo())

		res, err := uc.ChannelAdd(ctx, 99, "@news")
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.AdminUnauthorized {
			t.Errorf("expected unauthorized, got %v", res.Outcome)
		}
		if list, _ := channels.List(ctx); len(list) != 0 {
			t.Errorf("expected list unchanged, got %v", list)
		}
	})

	t.Run("should add a normalized channel once", func(t *testing.T) {
		channels := NewMockChannelRepo()
		uc := newAdminUC(NewMockAdminRepo(1), channels, NewMockAccountRepo())

		res, err := uc.ChannelAdd(ctx, 1, "news")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Applied() || res.Value != "@news" {
			t.Errorf("expected @news to be added, got %+v", res)
		}

		dup, err := uc.ChannelAdd(ctx, 1, "@news")
		if err != nil {
			t.Fatal(err)
		}
		if dup.Outcome != model.AdminAlreadyPresent {
			t.Errorf("expected already_present, got %v", dup.Outcome)
		}
		if list, _ := channels.List(ctx); len(list) != 1 {
			t.Errorf("expected a single entry, got %v", list)
		}
	})

	t.Run("should reject invalid channel input", func(t *testing.T) {
		uc := newAdminUC(NewMockAdminRepo(1), NewMockChannelRepo(), NewMockAccountRepo())
		res, err := uc.ChannelAdd(ctx, 1, "   ")
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.AdminInvalidInput {
			t.Errorf("expected invalid_input, got %v", res.Outcome)
		}
	})

	t.Run("should treat admin lookup errors as unauthorized", func(t *testing.T) {
		admins := NewMockAdminRepo(1)
		admins.ContainsFunc = func(ctx context.Context, id int64) (bool, error) {
			return true, errors.New("store down")
		}
		uc := newAdminUC(admins, NewMockChannelRepo(), NewMockAccountRepo())

		res, err := uc.ChannelAdd(ctx, 1, "@news")
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.AdminUnauthorized {
			t.Errorf("expected unauthorized, got %v", res.Outcome)
		}
	})
}

func TestAdminUseCase_ChannelRemove(t *testing.T) {
	ctx := context.Background()
	channels := NewMockChannelRepo("@a", "@b")
	uc := newAdminUC(NewMockAdminRepo(1), channels, NewMockAccountRepo())

	res, err := uc.ChannelRemove(ctx, 1, "a")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied() {
		t.Errorf("expected removal, got %v", res.Outcome)
	}

	missing, err := uc.ChannelRemove(ctx, 1, "@zzz")
	if err != nil {
		t.Fatal(err)
	}
	if missing.Outcome != model.AdminNotPresent {
		t.Errorf("expected not_present, got %v", missing.Outcome)
	}

	list, res2, err := uc.ChannelList(ctx, 1)
	if err != nil || !res2.Applied() {
		t.Fatalf("ChannelList failed: %v %v", res2.Outcome, err)
	}
	if len(list) != 1 || list[0] != "@b" {
		t.Errorf("expected [@b], got %v", list)
	}
}

func TestAdminUseCase_AdminAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("should let an admin add another admin", func(t *testing.T) {
		admins := NewMockAdminRepo(1)
		uc := newAdminUC(admins, NewMockChannelRepo(), NewMockAccountRepo())

		res, err := uc.AdminAdd(ctx, 1, 2)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Applied() {
			t.Errorf("expected applied, got %v", res.Outcome)
		}
		if !uc.IsAdmin(ctx, 2) {
			t.Error("2 should now be an admin")
		}

		again, _ := uc.AdminAdd(ctx, 1, 2)
		if again.Outcome != model.AdminAlreadyPresent {
			t.Errorf("expected already_present, got %v", again.Outcome)
		}
	})

	t.Run("should refuse non-admin executors", func(t *testing.T) {
		admins := NewMockAdminRepo(1)
		uc := newAdminUC(admins, NewMockChannelRepo(), NewMockAccountRepo())

		res, err := uc.AdminAdd(ctx, 5, 6)
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != model.AdminUnauthorized {
			t.Errorf("expected unauthorized, got %v", res.Outcome)
		}
		if uc.IsAdmin(ctx, 6) {
			t.Error("6 must not become an admin")
		}
	})

	t.Run("should surface store write failures", func(t *testing.T) {
		admins := NewMockAdminRepo(1)
		admins.AddFunc = func(ctx context.Context, id int64) (bool, error) {
			return false, errors.New("read-only filesystem")
		}
		uc := newAdminUC(admins, NewMockChannelRepo(), NewMockAccountRepo())

		_, err := uc.AdminAdd(ctx, 1, 2)
		if !errors.Is(err, domain.ErrStoreWrite) {
			t.Errorf("expected ErrStoreWrite, got %v", err)
		}
	})
}

func TestAdminUseCase_SeedAdmins(t *testing.T) {
	ctx := context.Background()
	admins := NewMockAdminRepo()
	uc := newAdminUC(admins, NewMockChannelRepo(), NewMockAccountRepo())

	if err := uc.SeedAdmins(ctx, []int64{10, 0, 11, 10}); err != nil {
		t.Fatal(err)
	}
	ids, _ := admins.List(ctx)
	if len(ids) != 2 {
		t.Errorf("expected two admins seeded, got %v", ids)
	}
}

func TestAdminUseCase_UserInfo(t *testing.T) {
	ctx := context.Background()
	accounts := NewMockAccountRepo()
	accounts.Seed(&model.UserAccount{ID: 42, Balance: 123})
	uc := newAdminUC(NewMockAdminRepo(1), NewMockChannelRepo(), accounts)

	acc, res, err := uc.UserInfo(ctx, 1, 42)
	if err != nil || !res.Applied() || acc.Balance != 123 {
		t.Fatalf("expected account 42, got %+v %v %v", acc, res.Outcome, err)
	}

	_, res, err = uc.UserInfo(ctx, 1, 43)
	if err != nil || res.Outcome != model.AdminNotPresent {
		t.Errorf("expected not_present, got %v %v", res.Outcome, err)
	}
	if accounts.Get(43) != nil {
		t.Error("UserInfo must not create accounts")
	}

	_, res, _ = uc.UserInfo(ctx, 2, 42)
	if res.Outcome != model.AdminUnauthorized {
		t.Errorf("expected unauthorized, got %v", res.Outcome)
	}
}
