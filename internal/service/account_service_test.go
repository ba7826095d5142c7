package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/bikemarket/internal/util/token"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	fail bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type AccountServiceTestSuite struct {
	suite.Suite
	store  *db.UnifiedDBImpl
	blobs  *memBlobStore
	mailer *fakeMailer
	svc    *AccountService
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.store = newTestStore(suite.T())
	suite.blobs = newMemBlobStore()
	suite.mailer = &fakeMailer{}
	maker, err := token.NewJWTMaker("0123456789abcdef0123456789abcdef", "fedcba9876543210fedcba9876543210")
	require.NoError(suite.T(), err)
	suite.svc = NewAccountService(suite.store, suite.blobs, suite.mailer, maker)
}

func (suite *AccountServiceTestSuite) ensure(id uint, staff bool) {
	_, err := suite.svc.EnsureUser(context.Background(), Principal{UserID: id, Username: "rider", Email: "rider@example.com", IsStaff: staff})
	require.NoError(suite.T(), err)
}

func (suite *AccountServiceTestSuite) TestEnsureUserKeepsProfileFields() {
	ctx := context.Background()
	suite.ensure(7, false)

	_, err := suite.svc.UpdateProfile(ctx, 7, ProfileForm{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(suite.T(), err)

	// 再次登入且權限改變, 姓名不被覆寫
	user, err := suite.svc.EnsureUser(ctx, Principal{UserID: 7, Username: "rider2", IsStaff: true})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "rider2", user.Username)
	require.True(suite.T(), user.IsStaff)
	require.Equal(suite.T(), "Ada", user.FirstName)
	require.Equal(suite.T(), "rider@example.com", user.Email)

	_, err = suite.svc.EnsureUser(ctx, Principal{})
	require.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *AccountServiceTestSuite) TestEnsureProfileIsIdempotent() {
	ctx := context.Background()
	suite.ensure(7, false)
	a, err := suite.svc.EnsureProfile(ctx, 7)
	require.NoError(suite.T(), err)
	b, err := suite.svc.EnsureProfile(ctx, 7)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), a.ID, b.ID)
}

func (suite *AccountServiceTestSuite) TestUpdateProfilePictureReplacesOld() {
	ctx := context.Background()
	suite.ensure(7, false)

	first, err := suite.svc.UpdateProfile(ctx, 7, ProfileForm{Picture: &ImageUpload{Filename: "me.png", Data: []byte("1")}})
	require.NoError(suite.T(), err)
	oldPath := first.Profile.ProfilePicture
	require.True(suite.T(), strings.HasPrefix(oldPath, "profile_pics/"))

	second, err := suite.svc.UpdateProfile(ctx, 7, ProfileForm{Email: "new@example.com", Picture: &ImageUpload{Filename: "me2.png", Data: []byte("2")}})
	require.NoError(suite.T(), err)
	require.NotEqual(suite.T(), oldPath, second.Profile.ProfilePicture)
	require.Equal(suite.T(), "new@example.com", second.User.Email)
	require.Contains(suite.T(), suite.blobs.deleted, oldPath)
	require.Len(suite.T(), suite.blobs.objects, 1)

	_, err = suite.svc.UpdateProfile(ctx, 7, ProfileForm{Email: "not-mail"})
	require.ErrorIs(suite.T(), err, ErrValidation)

	_, err = suite.svc.UpdateProfile(ctx, 404, ProfileForm{})
	require.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestActivationFlow() {
	ctx := context.Background()
	suite.ensure(7, false)

	require.NoError(suite.T(), suite.svc.SendActivation(ctx, 7, "https://bikes.example.com/"))
	require.Len(suite.T(), suite.mailer.sent, 1)
	mail := suite.mailer.sent[0]
	require.Equal(suite.T(), "rider@example.com", mail.to)

	prefix := "https://bikes.example.com/api/v1/account/activate/7/"
	idx := strings.Index(mail.body, prefix)
	require.GreaterOrEqual(suite.T(), idx, 0)
	tok := strings.Fields(mail.body[idx+len(prefix):])[0]

	require.ErrorIs(suite.T(), suite.svc.Activate(ctx, 8, tok), ErrValidation)
	require.ErrorIs(suite.T(), suite.svc.Activate(ctx, 7, tok+"x"), ErrValidation)
	require.NoError(suite.T(), suite.svc.Activate(ctx, 7, tok))

	view, err := suite.svc.GetAccount(ctx, 7)
	require.NoError(suite.T(), err)
	require.True(suite.T(), view.User.IsActive)

	require.ErrorIs(suite.T(), suite.svc.SendActivation(ctx, 7, "https://bikes.example.com"), ErrValidation)
}

func (suite *AccountServiceTestSuite) TestSendActivationMailFailure() {
	suite.ensure(7, false)
	suite.mailer.fail = true
	err := suite.svc.SendActivation(context.Background(), 7, "http://localhost")
	require.Error(suite.T(), err)
	require.NotErrorIs(suite.T(), err, ErrValidation)
}
