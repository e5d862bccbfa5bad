package repository

import (
	"context"
)

const StepAwaitingWallet = "awaiting_wallet_address"

// ConversationState holds the user's progress in a multi-step conversation.
type ConversationState struct {
	Step string            `json:"step"` // e.g. StepAwaitingWallet
	Data map[string]string `json:"data,omitempty"`
}

// StateRepository is the port for managing a user's conversational state.
// GetState returns nil, nil when no state is stored or it expired.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
