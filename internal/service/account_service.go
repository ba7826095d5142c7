package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/bikemarket/internal/util/token"
	"github.com/rs/zerolog/log"
)

const ActivationTokenDuration = 24 * time.Hour

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ActivationTokens 簽發與驗證帳號啟用 token
type ActivationTokens interface {
	CreateActivationToken(userID uint, duration time.Duration) (string, error)
	VertifyActivationToken(token string, userID uint) error
}

// Principal 從 bearer token 解析出的身分
type Principal struct {
	UserID   uint
	Username string
	Email    string
	IsStaff  bool
}

func (p Principal) Actor() Actor {
	return Actor{UserID: p.UserID, IsStaff: p.IsStaff}
}

type ProfileForm struct {
	FirstName string       `json:"first_name" validate:"max=150"`
	LastName  string       `json:"last_name" validate:"max=150"`
	Email     string       `json:"email" validate:"omitempty,email,max=254"`
	Picture   *ImageUpload `json:"-"`
}

type AccountView struct {
	User    *model.User    `json:"user"`
	Profile *model.Profile `json:"profile"`
}

type IAccountService interface {
	EnsureUser(ctx context.Context, p Principal) (*model.User, error)
	EnsureProfile(ctx context.Context, userID uint) (*model.Profile, error)
	GetAccount(ctx context.Context, userID uint) (*AccountView, error)
	UpdateProfile(ctx context.Context, userID uint, form ProfileForm) (*AccountView, error)
	SendActivation(ctx context.Context, userID uint, baseURL string) error
	Activate(ctx context.Context, userID uint, activationToken string) error
}

type AccountService struct {
	userRepo db.IUserRepository
	blobs    BlobStore
	mailer   Mailer
	tokens   ActivationTokens
}

func NewAccountService(userRepo db.IUserRepository, blobs BlobStore, mailer Mailer, tokens ActivationTokens) *AccountService {
	return &AccountService{
		userRepo: userRepo,
		blobs:    blobs,
		mailer:   mailer,
		tokens:   tokens,
	}
}

// EnsureUser 身分提供者為準, 每次請求同步本地鏡像
func (s *AccountService) EnsureUser(ctx context.Context, p Principal) (*model.User, error) {
	if p.UserID == 0 {
		return nil, validationErr("principal has no user id")
	}
	username := p.Username
	if username == "" {
		username = fmt.Sprintf("user-%d", p.UserID)
	}
	user := &model.User{
		ID:       p.UserID,
		Username: username,
		Email:    p.Email,
		IsStaff:  p.IsStaff,
	}
	if err := s.userRepo.UpsertUser(ctx, user); err != nil {
		return nil, repoErr(err, "upsert user %d", p.UserID)
	}
	stored, err := s.userRepo.GetUserByID(ctx, p.UserID)
	if err != nil {
		return nil, repoErr(err, "user %d", p.UserID)
	}
	return stored, nil
}

func (s *AccountService) EnsureProfile(ctx context.Context, userID uint) (*model.Profile, error) {
	profile, err := s.userRepo.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, repoErr(err, "profile of user %d", userID)
	}
	return profile, nil
}

func (s *AccountService) GetAccount(ctx context.Context, userID uint) (*AccountView, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, repoErr(err, "user %d", userID)
	}
	profile, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AccountView{User: user, Profile: profile}, nil
}

// UpdateProfile 新頭像上傳成功後才刪除舊的
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, form ProfileForm) (*AccountView, error) {
	if err := validateStruct(form); err != nil {
		return nil, err
	}
	view, err := s.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(form.Email)
	if email == "" {
		email = view.User.Email
	}
	if err := s.userRepo.UpdateUserNames(ctx, userID, strings.TrimSpace(form.FirstName), strings.TrimSpace(form.LastName), email); err != nil {
		return nil, repoErr(err, "update user %d", userID)
	}

	if form.Picture != nil {
		p := blobPath("profile_pics", form.Picture.Filename)
		if len(form.Picture.Data) == 0 {
			return nil, validationErr("profile picture is empty")
		}
		if err := s.blobs.Put(ctx, p, form.Picture.Data, form.Picture.ContentType); err != nil {
			return nil, fmt.Errorf("%w: store profile picture: %v", ErrPersistence, err)
		}
		if err := s.userRepo.SetProfilePicture(ctx, userID, p); err != nil {
			if delErr := s.blobs.Delete(ctx, p); delErr != nil {
				log.Warn().Err(delErr).Str("path", p).Msg("failed to delete blob")
			}
			return nil, repoErr(err, "set profile picture of user %d", userID)
		}
		if old := view.Profile.ProfilePicture; old != "" {
			if err := s.blobs.Delete(ctx, old); err != nil {
				log.Warn().Err(err).Str("path", old).Msg("failed to delete blob")
			}
		}
	}
	return s.GetAccount(ctx, userID)
}

func activationLink(baseURL string, userID uint, tok string) string {
	return fmt.Sprintf("%s/api/v1/account/activate/%d/%s", strings.TrimRight(baseURL, "/"), userID, tok)
}

// SendActivation 寄出 24 小時內有效的啟用連結
func (s *AccountService) SendActivation(ctx context.Context, userID uint, baseURL string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return repoErr(err, "user %d", userID)
	}
	if user.IsActive {
		return validationErr("user %d is already active", userID)
	}
	if user.Email == "" {
		return validationErr("user %d has no email", userID)
	}

	tok, err := s.tokens.CreateActivationToken(userID, ActivationTokenDuration)
	if err != nil {
		return fmt.Errorf("create activation token: %w", err)
	}
	body := fmt.Sprintf("Hi %s,\n\nPlease activate your account:\n%s\n\nThe link expires in 24 hours.\n",
		user.Username, activationLink(baseURL, userID, tok))
	if err := s.mailer.Send(ctx, user.Email, "Activate your account", body); err != nil {
		return fmt.Errorf("send activation mail: %w", err)
	}
	return nil
}

func (s *AccountService) Activate(ctx context.Context, userID uint, activationToken string) error {
	if err := s.tokens.VertifyActivationToken(activationToken, userID); err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return validationErr("activation link has expired")
		}
		return validationErr("activation link is invalid")
	}
	if err := s.userRepo.SetUserActive(ctx, userID, true); err != nil {
		return repoErr(err, "activate user %d", userID)
	}
	return nil
}

var _ IAccountService = (*AccountService)(nil)
