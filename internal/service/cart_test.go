package service

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/redis_repo"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartTestSuite struct {
	suite.Suite
	store    *db.UnifiedDBImpl
	sessions *memSessionStore
	road     *model.Listing
	mtb      *model.Listing
}

func TestCartTestSuite(t *testing.T) {
	suite.Run(t, new(CartTestSuite))
}

func (suite *CartTestSuite) SetupTest() {
	suite.store = newTestStore(suite.T())
	suite.sessions = newMemSessionStore()
	c := seedCategory(suite.T(), suite.store, "bikes")
	suite.road = seedListing(suite.T(), suite.store, "road", 100, c.ID, 9, model.ListingStatusApproved)
	suite.mtb = seedListing(suite.T(), suite.store, "mtb", 50, c.ID, 9, model.ListingStatusApproved)
}

func (suite *CartTestSuite) load(sessionID string) *Cart {
	cart, err := LoadCart(context.Background(), suite.sessions, suite.store, sessionID)
	require.NoError(suite.T(), err)
	return cart
}

func collect(t *testing.T, cart *Cart) []LineItem {
	seq, err := cart.Items(context.Background())
	require.NoError(t, err)
	var out []LineItem
	for item := range seq {
		out = append(out, item)
	}
	return out
}

func (suite *CartTestSuite) TestAddIncrementsAndSnapshotsPrice() {
	ctx := context.Background()
	cart := suite.load("s1")

	require.NoError(suite.T(), cart.Add(ctx, suite.road, 0, false))
	require.NoError(suite.T(), cart.Add(ctx, suite.road, 2, false))
	require.NoError(suite.T(), cart.Add(ctx, suite.mtb, 1, false))
	require.Equal(suite.T(), 2, cart.Len())
	require.Equal(suite.T(), 4, cart.Quantity())
	require.True(suite.T(), decimal.NewFromInt(350).Equal(cart.TotalPrice()))

	// 價格變動不影響已加入的明細
	suite.road.Price = 999
	require.NoError(suite.T(), suite.store.UpdateListing(ctx, suite.road))
	require.NoError(suite.T(), cart.Add(ctx, suite.road, 1, false))
	require.True(suite.T(), decimal.NewFromInt(450).Equal(cart.TotalPrice()))

	items := collect(suite.T(), cart)
	require.Len(suite.T(), items, 2)
	require.Equal(suite.T(), suite.road.ID, items[0].Listing.ID)
	require.True(suite.T(), decimal.NewFromInt(100).Equal(items[0].Price))
	require.Equal(suite.T(), 4, items[0].Quantity)
	require.True(suite.T(), decimal.NewFromInt(400).Equal(items[0].Subtotal))
	require.EqualValues(suite.T(), 999, items[0].Listing.Price)
}

func (suite *CartTestSuite) TestUpdateQuantitySets() {
	ctx := context.Background()
	cart := suite.load("s1")
	require.NoError(suite.T(), cart.Add(ctx, suite.road, 3, false))
	require.NoError(suite.T(), cart.Update(ctx, suite.road, 1, true))
	require.Equal(suite.T(), 1, cart.Quantity())

	require.ErrorIs(suite.T(), cart.Add(ctx, suite.road, -1, false), ErrValidation)
	require.Equal(suite.T(), 1, cart.Quantity())
}

func (suite *CartTestSuite) TestPersistsEveryMutation() {
	ctx := context.Background()
	cart := suite.load("s1")
	require.NoError(suite.T(), cart.Add(ctx, suite.road, 2, false))

	reloaded := suite.load("s1")
	require.Equal(suite.T(), 2, reloaded.Quantity())
	require.True(suite.T(), decimal.NewFromInt(200).Equal(reloaded.TotalPrice()))

	require.NoError(suite.T(), cart.Remove(ctx, suite.road.ID))
	reloaded = suite.load("s1")
	require.True(suite.T(), reloaded.IsEmpty())

	// 其他 session 看不到
	require.True(suite.T(), suite.load("s2").IsEmpty())
}

func (suite *CartTestSuite) TestFailedPersistLeavesCartUnchanged() {
	ctx := context.Background()
	cart := suite.load("s1")
	require.NoError(suite.T(), cart.Add(ctx, suite.road, 1, false))

	suite.sessions.failSet = true
	require.Error(suite.T(), cart.Add(ctx, suite.mtb, 1, false))
	require.Equal(suite.T(), 1, cart.Len())
}

func (suite *CartTestSuite) TestRemoveAbsentIsNoop() {
	ctx := context.Background()
	cart := suite.load("s1")
	suite.sessions.failSet = true
	suite.sessions.failDel = true
	require.NoError(suite.T(), cart.Remove(ctx, 12345))
}

func (suite *CartTestSuite) TestClearAndRestartableIteration() {
	ctx := context.Background()
	cart := suite.load("s1")
	require.NoError(suite.T(), cart.Add(ctx, suite.road, 1, false))
	require.NoError(suite.T(), cart.Add(ctx, suite.mtb, 1, false))

	seq, err := cart.Items(ctx)
	require.NoError(suite.T(), err)
	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	require.Equal(suite.T(), 2, first)
	require.Equal(suite.T(), first, second)

	require.NoError(suite.T(), cart.Clear(ctx))
	require.Empty(suite.T(), collect(suite.T(), cart))
	require.True(suite.T(), cart.TotalPrice().IsZero())
	require.True(suite.T(), suite.load("s1").IsEmpty())
}

func (suite *CartTestSuite) TestDeletedListingIsSkipped() {
	ctx := context.Background()
	cart := suite.load("s1")
	require.NoError(suite.T(), cart.Add(ctx, suite.road, 1, false))
	require.NoError(suite.T(), cart.Add(ctx, suite.mtb, 1, false))

	_, err := suite.store.DeleteListing(ctx, suite.mtb.ID)
	require.NoError(suite.T(), err)

	lines, missing, err := cart.Resolve(ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), lines, 1)
	require.Equal(suite.T(), []uint{suite.mtb.ID}, missing)
}

func TestCartOverRedisSession(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	sessions := redis_repo.NewSessionRepo(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	store := newTestStore(t)
	c := seedCategory(t, store, "bikes")
	l := seedListing(t, store, "road", 120, c.ID, 1, model.ListingStatusApproved)

	cart, err := LoadCart(ctx, sessions, store, "abc")
	require.NoError(t, err)
	require.NoError(t, cart.Add(ctx, l, 2, false))

	again, err := LoadCart(ctx, sessions, store, "abc")
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(240).Equal(again.TotalPrice()))

	require.NoError(t, again.Clear(ctx))
	reloaded, err := LoadCart(ctx, sessions, store, "abc")
	require.NoError(t, err)
	require.True(t, reloaded.IsEmpty())
}
