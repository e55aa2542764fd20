package pin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops/internal/models"
)

func TestNewCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code := NewCode()
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	p := models.LoginPin{
		Code:      "123456",
		UserID:    7,
		Status:    models.PinPending,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}
	require.NoError(t, s.Save(context.Background(), p))

	got, err := s.Get(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, models.PinPending, got.Status)

	// за секунду до истечения код ещё жив
	now = now.Add(TTL - time.Second)
	_, err = s.Get(context.Background(), "123456")
	require.NoError(t, err)

	// после 30 секунд — как будто его и не было
	now = now.Add(2 * time.Second)
	_, err = s.Get(context.Background(), "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SaveExpiredRejected(t *testing.T) {
	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	p := models.LoginPin{Code: "000001", ExpiresAt: now.Add(-time.Second)}
	assert.ErrorIs(t, s.Save(context.Background(), p), ErrNotFound)
}

func TestMemoryStore_UnknownCode(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "999999")
	assert.ErrorIs(t, err, ErrNotFound)
}
