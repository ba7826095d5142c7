package db

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type MessageRepoTestSuite struct {
	suite.Suite
	db          *gorm.DB
	messageRepo *MessageRepo
	base        time.Time
}

func TestMessageRepoTestSuite(t *testing.T) {
	suite.Run(t, new(MessageRepoTestSuite))
}

func (suite *MessageRepoTestSuite) SetupTest() {
	db, err := NewMemoryDB()
	require.NoError(suite.T(), err)
	suite.db = db
	suite.messageRepo = NewMessageRepo(NewDbDao(db))
	suite.base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
}

func (suite *MessageRepoTestSuite) TearDownTest() {
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func (suite *MessageRepoTestSuite) post(userID uint, text string, offset time.Duration) *model.SupportMessage {
	msg := &model.SupportMessage{
		UserID:    userID,
		Message:   text,
		Status:    model.MessageStatusOpen,
		Priority:  model.MessagePriorityMedium,
		Timestamp: suite.base.Add(offset),
	}
	require.NoError(suite.T(), suite.messageRepo.CreateMessage(context.Background(), msg))
	return msg
}

func (suite *MessageRepoTestSuite) TestHistoryIsChronological() {
	ctx := context.Background()
	later := suite.post(1, "second", time.Minute)
	earlier := suite.post(1, "first", 0)
	suite.post(2, "other user", 30*time.Second)

	msgs, err := suite.messageRepo.ListMessagesByUserID(ctx, 1)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), msgs, 2)
	require.Equal(suite.T(), earlier.ID, msgs[0].ID)
	require.Equal(suite.T(), later.ID, msgs[1].ID)
}

func (suite *MessageRepoTestSuite) TestCreateReplyUpdatesParent() {
	ctx := context.Background()
	ticket := suite.post(1, "help", 0)

	reply := &model.SupportMessage{
		UserID:    ticket.UserID,
		Message:   "on it",
		IsAdmin:   true,
		ParentID:  &ticket.ID,
		Status:    model.MessageStatusInProgress,
		Priority:  model.MessagePriorityMedium,
		Timestamp: suite.base.Add(time.Minute),
	}
	require.NoError(suite.T(), suite.messageRepo.CreateReply(ctx, reply, model.MessageStatusInProgress, nil))

	parent, err := suite.messageRepo.GetMessageByID(ctx, ticket.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.MessageStatusInProgress, parent.Status)

	replies, err := suite.messageRepo.ListReplies(ctx, ticket.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), replies, 1)
	require.Equal(suite.T(), reply.ID, replies[0].ID)

	tickets, err := suite.messageRepo.ListTickets(ctx, "")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), tickets, 1)
	require.Equal(suite.T(), ticket.ID, tickets[0].ID)
}

func (suite *MessageRepoTestSuite) TestCreateReplyMissingParentRollsBack() {
	ctx := context.Background()
	missing := uint(404)
	reply := &model.SupportMessage{UserID: 1, Message: "x", IsAdmin: true, ParentID: &missing, Status: model.MessageStatusInProgress, Priority: model.MessagePriorityMedium}

	err := suite.messageRepo.CreateReply(ctx, reply, model.MessageStatusInProgress, nil)
	require.Error(suite.T(), err)

	msgs, err := suite.messageRepo.ListMessagesByUserID(ctx, 1)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), msgs)
}

func (suite *MessageRepoTestSuite) TestUnreadAndUsers() {
	ctx := context.Background()
	open := suite.post(1, "open", 0)
	handled := suite.post(2, "handled", time.Second)
	require.NoError(suite.T(), suite.messageRepo.UpdateMessage(ctx, handled.ID, map[string]any{"status": model.MessageStatusResolved}))

	unread, err := suite.messageRepo.ListUnread(ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), unread, 1)
	require.Equal(suite.T(), open.ID, unread[0].ID)

	ids, err := suite.messageRepo.ListMessageUserIDs(ctx)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), []uint{1, 2}, ids)

	require.ErrorIs(suite.T(), suite.messageRepo.UpdateMessage(ctx, 999, map[string]any{"status": model.MessageStatusClosed}), ErrRecordNotFound)
}
