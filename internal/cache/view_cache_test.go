package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(key)
	return redis.NewStringResult(args.String(0), args.Error(1))
}

func (m *mockClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(key, value, expiration)
	return redis.NewStatusResult("OK", args.Error(0))
}

func (m *mockClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(keys)
	return redis.NewIntResult(int64(len(keys)), args.Error(0))
}

func (m *mockClient) Close() error {
	return m.Called().Error(0)
}

func TestRedisViewCache_GetHitAndMiss(t *testing.T) {
	c := new(mockClient)
	vc := &RedisViewCache{client: c, ttl: time.Minute}
	hit, miss := uuid.New(), uuid.New()

	c.On("Get", "book:view:"+hit.String()).Return(`{"id":"x"}`, nil)
	c.On("Get", "book:view:"+miss.String()).Return("", redis.Nil)

	data, err := vc.Get(context.Background(), hit)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x"}`, string(data))

	_, err = vc.Get(context.Background(), miss)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisViewCache_GetError(t *testing.T) {
	c := new(mockClient)
	vc := &RedisViewCache{client: c}
	boom := errors.New("i/o timeout")

	c.On("Get", mock.Anything).Return("", boom)
	_, err := vc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
}

func TestRedisViewCache_SetAndInvalidate(t *testing.T) {
	c := new(mockClient)
	vc := &RedisViewCache{client: c, ttl: 10 * time.Minute}
	id := uuid.New()
	k := "book:view:" + id.String()

	c.On("Set", k, []byte("{}"), 10*time.Minute).Return(nil).Once()
	c.On("Del", []string{k}).Return(nil).Once()
	c.On("Close").Return(nil).Once()

	require.NoError(t, vc.Set(context.Background(), id, []byte("{}")))
	require.NoError(t, vc.Invalidate(context.Background(), id))
	require.NoError(t, vc.Close())
	c.AssertExpectations(t)
}

func TestNoopViewCache(t *testing.T) {
	var vc ViewCache = NoopViewCache{}
	id := uuid.New()

	require.NoError(t, vc.Set(context.Background(), id, []byte("{}")))
	_, err := vc.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, vc.Invalidate(context.Background(), id))
}
