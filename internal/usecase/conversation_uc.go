package usecase

import (
	"context"
	"fmt"
	"strings"

	"telegram-reward-bot/internal/domain/ports/repository"
	"telegram-reward-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

var _ ConversationUseCase = (*conversationUC)(nil)

// ConversationUseCase tracks per-user "awaiting input" steps, replacing
// one-shot message listeners.
type ConversationUseCase interface {
	AwaitWalletAddress(ctx context.Context, tgID int64) error
	PendingStep(ctx context.Context, tgID int64) string
	Cancel(ctx context.Context, tgID int64) error
	// CompleteWalletAddress consumes text as the wallet address when the user
	// is in the awaiting step. handled is false otherwise.
	CompleteWalletAddress(ctx context.Context, tgID int64, text string) (handled bool, err error)
}

type conversationUC struct {
	states repository.StateRepository
	ledger LedgerUseCase
	log    *zerolog.Logger
}

func NewConversationUseCase(states repository.StateRepository, ledger LedgerUseCase, logger *zerolog.Logger) *conversationUC {
	return &conversationUC{
		states: states,
		ledger: ledger,
		log:    logging.Component(logger, "ConversationUC"),
	}
}

func (u *conversationUC) AwaitWalletAddress(ctx context.Context, tgID int64) error {
	defer logging.TraceDuration(u.log, "ConversationUC.AwaitWalletAddress")()
	if err := u.states.SetState(ctx, tgID, &repository.ConversationState{Step: repository.StepAwaitingWallet}); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// PendingStep returns "" when nothing is pending or the state store fails.
func (u *conversationUC) PendingStep(ctx context.Context, tgID int64) string {
	st, err := u.states.GetState(ctx, tgID)
	if err != nil {
		u.log.Warn().Err(err).Int64("tg_id", tgID).Msg("get conversation state failed")
		return ""
	}
	if st == nil {
		return ""
	}
	return st.Step
}

func (u *conversationUC) Cancel(ctx context.Context, tgID int64) error {
	return u.states.ClearState(ctx, tgID)
}

func (u *conversationUC) CompleteWalletAddress(ctx context.Context, tgID int64, text string) (bool, error) {
	defer logging.TraceDuration(u.log, "ConversationUC.CompleteWalletAddress")()

	if u.PendingStep(ctx, tgID) != repository.StepAwaitingWallet {
		return false, nil
	}
	address := strings.TrimSpace(text)
	if address == "" {
		return false, nil
	}
	if err := u.ledger.SetWalletAddress(ctx, tgID, address); err != nil {
		// keep the step so the user can retry
		return true, err
	}
	if err := u.states.ClearState(ctx, tgID); err != nil {
		u.log.Warn().Err(err).Int64("tg_id", tgID).Msg("clear conversation state failed")
	}
	return true, nil
}
