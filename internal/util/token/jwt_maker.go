package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	audienceAccess     = "bikemarket"
	audienceActivation = "bikemarket-activation"
	minSecretKeySize   = 32
)

// Payload 身分提供者簽發的 access token 內容
type Payload struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

type Maker interface {
	CreateToken(userID uint, username, email string, isStaff bool, duration time.Duration) (string, *Payload, error)
	VertifyToken(token string) (*Payload, error)
	CreateActivationToken(userID uint, duration time.Duration) (string, error)
	VertifyActivationToken(token string, userID uint) error
}

// JWTMaker HS256, access token 與 activation token 用不同 key 及 audience
type JWTMaker struct {
	secretKey     []byte
	activationKey []byte
	now           func() time.Time
}

func NewJWTMaker(secretKey, activationKey string) (*JWTMaker, error) {
	if len(secretKey) < minSecretKeySize {
		return nil, fmt.Errorf("invalid key size: must be at least %d characters", minSecretKeySize)
	}
	if activationKey == "" {
		activationKey = secretKey
	}
	return &JWTMaker{
		secretKey:     []byte(secretKey),
		activationKey: []byte(activationKey),
		now:           time.Now,
	}, nil
}

func (m *JWTMaker) CreateToken(userID uint, username, email string, isStaff bool, duration time.Duration) (string, *Payload, error) {
	now := m.now()
	payload := &Payload{
		UserID:   userID,
		Username: username,
		Email:    email,
		IsStaff:  isStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Audience:  jwt.ClaimStrings{audienceAccess},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(m.secretKey)
	if err != nil {
		return "", nil, err
	}
	return signed, payload, nil
}

func (m *JWTMaker) parse(tokenStr string, claims jwt.Claims, key []byte, audience string) error {
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

func (m *JWTMaker) VertifyToken(tokenStr string) (*Payload, error) {
	payload := &Payload{}
	if err := m.parse(tokenStr, payload, m.secretKey, audienceAccess); err != nil {
		return nil, err
	}
	if payload.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return payload, nil
}

// CreateActivationToken subject 為使用者 id
func (m *JWTMaker) CreateActivationToken(userID uint, duration time.Duration) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Audience:  jwt.ClaimStrings{audienceActivation},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.activationKey)
}

func (m *JWTMaker) VertifyActivationToken(tokenStr string, userID uint) error {
	claims := &jwt.RegisteredClaims{}
	if err := m.parse(tokenStr, claims, m.activationKey, audienceActivation); err != nil {
		return err
	}
	if claims.Subject != strconv.FormatUint(uint64(userID), 10) {
		return fmt.Errorf("%w: token issued for another user", ErrInvalidToken)
	}
	return nil
}

var _ Maker = (*JWTMaker)(nil)
