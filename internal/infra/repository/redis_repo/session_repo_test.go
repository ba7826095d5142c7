package redis_repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SessionRepoTestSuite struct {
	suite.Suite
	mr          *miniredis.Miniredis
	sessionRepo *SessionRepo
}

func TestSessionRepoTestSuite(t *testing.T) {
	suite.Run(t, new(SessionRepoTestSuite))
}

func (suite *SessionRepoTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	require.NoError(suite.T(), err)
	suite.mr = mr
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	suite.sessionRepo = NewSessionRepo(rdb, time.Hour)
}

func (suite *SessionRepoTestSuite) TearDownTest() {
	suite.mr.Close()
}

func (suite *SessionRepoTestSuite) TestSetGetDelete() {
	ctx := context.Background()

	_, ok, err := suite.sessionRepo.Get(ctx, "s1", "cart")
	require.NoError(suite.T(), err)
	require.False(suite.T(), ok)

	require.NoError(suite.T(), suite.sessionRepo.Set(ctx, "s1", "cart", []byte(`{"1":{"quantity":1}}`)))
	got, ok, err := suite.sessionRepo.Get(ctx, "s1", "cart")
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	require.JSONEq(suite.T(), `{"1":{"quantity":1}}`, string(got))
	require.Equal(suite.T(), time.Hour, suite.mr.TTL("session:s1"))

	// 不同 session 互不影響
	_, ok, err = suite.sessionRepo.Get(ctx, "s2", "cart")
	require.NoError(suite.T(), err)
	require.False(suite.T(), ok)

	require.NoError(suite.T(), suite.sessionRepo.Delete(ctx, "s1", "cart"))
	_, ok, err = suite.sessionRepo.Get(ctx, "s1", "cart")
	require.NoError(suite.T(), err)
	require.False(suite.T(), ok)
}

func (suite *SessionRepoTestSuite) TestExpire() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.sessionRepo.Set(ctx, "s1", "cart", []byte("{}")))
	suite.mr.FastForward(time.Hour + time.Second)

	_, ok, err := suite.sessionRepo.Get(ctx, "s1", "cart")
	require.NoError(suite.T(), err)
	require.False(suite.T(), ok)
}

func (suite *SessionRepoTestSuite) TestDestroy() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.sessionRepo.Set(ctx, "s1", "cart", []byte("{}")))
	require.NoError(suite.T(), suite.sessionRepo.Destroy(ctx, "s1"))
	require.False(suite.T(), suite.mr.Exists("session:s1"))
}
