// Package store persists chat and flagged-message records.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/config"
	"github.com/campuscare/support-chat/backend/internal/model/chat"
)

// Store writes immutable conversation records. Each call writes exactly one
// record or returns an error; nothing is retried.
type Store interface {
	WriteChat(ctx context.Context, msg chat.Message) error
	WriteFlagged(ctx context.Context, msg chat.FlaggedMessage) error
}

// New opens the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendDynamoDB:
		client, err := NewDynamoClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewDynamoStore(client, cfg.ChatsTable, cfg.FlaggedTable, logger), nil
	case config.BackendMemory, "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("store: unsupported backend %q", cfg.Backend)
	}
}
