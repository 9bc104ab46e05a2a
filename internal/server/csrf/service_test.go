package csrf

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famhub/famhub/internal/common"
	"github.com/famhub/famhub/internal/server/models"
)

// failingStore simulates a durable backend outage.
type failingStore struct{ err error }

func (f *failingStore) Get(ctx context.Context, sessionID string) (*models.CSRFToken, error) {
	return nil, f.err
}
func (f *failingStore) Upsert(ctx context.Context, token *models.CSRFToken) error { return f.err }
func (f *failingStore) Delete(ctx context.Context, sessionID string) error        { return f.err }
func (f *failingStore) DeleteExpired(ctx context.Context, nowMillis int64) error  { return f.err }

func TestCreateToken(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	svc := NewService(durable, nil, nil, 0)

	token, err := svc.CreateToken(ctx, "sess-1")
	require.NoError(t, err)
	// 32 random bytes, hex encoded.
	assert.Len(t, token, 64)

	stored, err := durable.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, token, stored.Token)

	// A second request replaces the first token.
	token2, err := svc.CreateToken(ctx, "sess-1")
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)

	_, err = svc.CreateToken(ctx, "")
	assert.ErrorIs(t, err, common.ErrCSRFTokenInvalid)
}

func TestCreateToken_MemoryFallbackOnStoreOutage(t *testing.T) {
	ctx := context.Background()
	fallback := NewMemoryStore()
	svc := NewService(&failingStore{err: errors.New("db down")}, fallback, nil, 0)

	token, err := svc.CreateToken(ctx, "sess-1")
	require.NoError(t, err)

	stored, err := fallback.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, token, stored.Token)

	// Validation still works against the fallback.
	err = svc.Validate(ctx, http.MethodPost, "sess-1", token, "")
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	svc := NewService(durable, nil, nil, 0)

	token, err := svc.CreateToken(ctx, "sess-1")
	require.NoError(t, err)

	t.Run("safe methods skip validation", func(t *testing.T) {
		for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
			assert.NoError(t, svc.Validate(ctx, m, "sess-1", "", ""))
		}
	})

	t.Run("header token accepted", func(t *testing.T) {
		assert.NoError(t, svc.Validate(ctx, http.MethodPost, "sess-1", token, ""))
	})

	t.Run("cookie token accepted when header absent", func(t *testing.T) {
		assert.NoError(t, svc.Validate(ctx, http.MethodPost, "sess-1", "", token))
	})

	t.Run("header preferred over cookie", func(t *testing.T) {
		err := svc.Validate(ctx, http.MethodPost, "sess-1", "wrong", token)
		assert.ErrorIs(t, err, common.ErrCSRFTokenInvalid)
	})

	t.Run("no token presented", func(t *testing.T) {
		err := svc.Validate(ctx, http.MethodPost, "sess-1", "", "")
		assert.ErrorIs(t, err, common.ErrCSRFTokenInvalid)
	})

	t.Run("mismatch rejected", func(t *testing.T) {
		err := svc.Validate(ctx, http.MethodDelete, "sess-1", "deadbeef", "")
		assert.ErrorIs(t, err, common.ErrCSRFTokenInvalid)
	})
}

func TestValidate_Expiry(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	svc := NewService(durable, nil, nil, time.Hour)

	token, err := svc.CreateToken(ctx, "sess-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	err = svc.Validate(ctx, http.MethodPost, "sess-1", token, "")
	assert.ErrorIs(t, err, common.ErrCSRFTokenExpired)
}

func TestValidate_CookieOnlyFallbackWithoutRecord(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), nil, nil, 0)

	// No token was ever issued for this session: a matching non-empty
	// header/cookie pair is accepted, anything else is not.
	assert.NoError(t, svc.Validate(ctx, http.MethodPost, "sess-x", "abc123", "abc123"))

	err := svc.Validate(ctx, http.MethodPost, "sess-x", "abc123", "def456")
	assert.ErrorIs(t, err, common.ErrCSRFTokenInvalid)

	err = svc.Validate(ctx, http.MethodPost, "sess-x", "abc123", "")
	assert.ErrorIs(t, err, common.ErrCSRFTokenInvalid)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	fallback := NewMemoryStore()
	svc := NewService(durable, fallback, nil, 0)

	_, err := svc.CreateToken(ctx, "sess-1")
	require.NoError(t, err)

	svc.Invalidate(ctx, "sess-1")

	_, err = durable.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = fallback.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", MaskToken(""))
	assert.Equal(t, "***", MaskToken("ab"))
	assert.Equal(t, "***", MaskToken("abcd"))
	assert.Equal(t, "abcd***", MaskToken("abcdef0123456789"))
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Now().UnixMilli()
	require.NoError(t, store.Upsert(ctx, &models.CSRFToken{SessionID: "old", Token: "t1", Expires: now - 1000}))
	require.NoError(t, store.Upsert(ctx, &models.CSRFToken{SessionID: "new", Token: "t2", Expires: now + 60_000}))

	require.NoError(t, store.DeleteExpired(ctx, now))

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = store.Get(ctx, "new")
	assert.NoError(t, err)
}
