package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreadCounter_GetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	counter := NewUnreadCounter(client)

	mock.ExpectGet("notifications:unread:user-1").SetVal("4")

	count, found, err := counter.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCounter_GetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	counter := NewUnreadCounter(client)

	mock.ExpectGet("notifications:unread:user-1").RedisNil()

	count, found, err := counter.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, count)
}

func TestUnreadCounter_GetCorruptValueIsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	counter := NewUnreadCounter(client)

	mock.ExpectGet("notifications:unread:user-1").SetVal("not-a-number")

	_, found, err := counter.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUnreadCounter_GetError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	counter := NewUnreadCounter(client)

	mock.ExpectGet("notifications:unread:user-1").SetErr(errors.New("connection refused"))

	_, _, err := counter.Get(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestUnreadCounter_VersionDefaultsToZero(t *testing.T) {
	client, mock := redismock.NewClientMock()
	counter := NewUnreadCounter(client)

	mock.ExpectGet("notifications:unread:version:user-1").RedisNil()
	mock.ExpectGet("notifications:unread:version:user-2").SetVal("3")

	version, err := counter.Version(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "0", version)

	version, err = counter.Version(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Equal(t, "3", version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCounter_StoreIfVersion(t *testing.T) {
	keys := []string{"notifications:unread:user-1", "notifications:unread:version:user-1"}

	t.Run("version unchanged", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		counter := NewUnreadCounter(client)

		mock.ExpectEvalSha(storeIfVersion.Hash(), keys, "2", "7", "86400").SetVal(int64(1))

		stored, err := counter.StoreIfVersion(context.Background(), "user-1", 7, "2")
		require.NoError(t, err)
		assert.True(t, stored)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalidated since the version was read", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		counter := NewUnreadCounter(client)

		mock.ExpectEvalSha(storeIfVersion.Hash(), keys, "2", "7", "86400").SetVal(int64(0))

		stored, err := counter.StoreIfVersion(context.Background(), "user-1", 7, "2")
		require.NoError(t, err)
		assert.False(t, stored)
	})

	t.Run("redis error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		counter := NewUnreadCounter(client)

		mock.ExpectEvalSha(storeIfVersion.Hash(), keys, "2", "7", "86400").SetErr(errors.New("connection refused"))

		_, err := counter.StoreIfVersion(context.Background(), "user-1", 7, "2")
		assert.Error(t, err)
	})
}

func TestUnreadCounter_InvalidateBumpsVersion(t *testing.T) {
	client, mock := redismock.NewClientMock()
	counter := NewUnreadCounter(client)

	mock.ExpectIncr("notifications:unread:version:user-1").SetVal(4)
	mock.ExpectExpire("notifications:unread:version:user-1", versionTTL).SetVal(true)
	mock.ExpectDel("notifications:unread:user-1").SetVal(1)

	require.NoError(t, counter.Invalidate(context.Background(), "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCounter_InvalidateStopsOnVersionError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	counter := NewUnreadCounter(client)

	mock.ExpectIncr("notifications:unread:version:user-1").SetErr(errors.New("connection refused"))

	assert.Error(t, counter.Invalidate(context.Background(), "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
