package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RedisCacheTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	cache  *RedisCache
}

func TestRedisCacheTestSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheTestSuite))
}

func (suite *RedisCacheTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	require.NoError(suite.T(), err)
	suite.mr = mr
	suite.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	suite.cache = NewRedisCache(suite.client, "listing")
}

func (suite *RedisCacheTestSuite) TearDownTest() {
	suite.client.Close()
	suite.mr.Close()
}

func (suite *RedisCacheTestSuite) TestGetSetWithPrefix() {
	ctx := context.Background()

	_, err := suite.cache.Get(ctx, "home")
	require.ErrorIs(suite.T(), err, ErrCacheMiss)

	require.NoError(suite.T(), suite.cache.Set(ctx, "home", []byte(`[1,2]`), time.Minute))
	got, err := suite.cache.Get(ctx, "home")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), `[1,2]`, string(got))
	require.True(suite.T(), suite.mr.Exists("listing:home"))
}

func (suite *RedisCacheTestSuite) TestTTLExpires() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.cache.Set(ctx, "buy_list:0::", []byte("x"), 300*time.Second))

	suite.mr.FastForward(299 * time.Second)
	_, err := suite.cache.Get(ctx, "buy_list:0::")
	require.NoError(suite.T(), err)

	suite.mr.FastForward(2 * time.Second)
	_, err = suite.cache.Get(ctx, "buy_list:0::")
	require.ErrorIs(suite.T(), err, ErrCacheMiss)
}

func (suite *RedisCacheTestSuite) TestClearOnlyTouchesNamespace() {
	ctx := context.Background()
	other := NewRedisCache(suite.client, "banner")
	require.NoError(suite.T(), suite.cache.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(suite.T(), suite.cache.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(suite.T(), other.Set(ctx, "a", []byte("3"), time.Minute))
	require.NoError(suite.T(), suite.client.Set(ctx, "session:abc", "cart", 0).Err())

	require.NoError(suite.T(), suite.cache.Clear(ctx))

	require.ElementsMatch(suite.T(), []string{"banner:a", "session:abc"}, suite.mr.Keys())

	_, err := other.Get(ctx, "a")
	require.NoError(suite.T(), err)
	require.True(suite.T(), suite.mr.Exists("session:abc"))

	// 空 namespace 再清一次不應出錯
	require.NoError(suite.T(), suite.cache.Clear(ctx))
}
