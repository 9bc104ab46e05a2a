package csrftokens

import (
	"context"

	"github.com/famhub/famhub/internal/server/models"
)

// Repository is the durable store for per-session anti-forgery tokens.
// The csrf service falls back to an in-memory store when these calls fail.
type Repository interface {
	Get(ctx context.Context, sessionID string) (*models.CSRFToken, error)
	Upsert(ctx context.Context, token *models.CSRFToken) error
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, nowMillis int64) error
}
