package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySeenStore(t *testing.T) {
	s := NewMemorySeenStore()
	ctx := context.Background()

	first, err := s.MarkSeen(ctx, "vip:AddrA", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := s.MarkSeen(ctx, "vip:AddrA", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := s.MarkSeen(ctx, "public:AddrA", time.Hour)
	require.NoError(t, err)
	assert.True(t, other, "keys are independent")
}

func TestMemorySeenStoreExpiry(t *testing.T) {
	s := NewMemorySeenStore()
	ctx := context.Background()

	_, err := s.MarkSeen(ctx, "vip:AddrA", time.Hour)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	first, err := s.MarkSeen(ctx, "vip:AddrA", time.Hour)
	require.NoError(t, err)
	assert.True(t, first, "expired entries are resurrected as first sightings")
}

func TestRedisSeenStore(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisSeenStore(client)
	ctx := context.Background()

	mock.ExpectSetNX("seen:vip:AddrA", 1, time.Hour).SetVal(true)
	first, err := s.MarkSeen(ctx, "vip:AddrA", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	mock.ExpectSetNX("seen:vip:AddrA", 1, time.Hour).SetVal(false)
	again, err := s.MarkSeen(ctx, "vip:AddrA", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSeenStoreFallsBackWithoutRedis(t *testing.T) {
	s := NewSeenStore(context.Background(), "")
	_, ok := s.(*MemorySeenStore)
	assert.True(t, ok)
}
