package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vnkhanh/prince-music-backend/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrRevokedToken     = errors.New("token has been revoked")
	ErrInvalidAlgorithm = errors.New("invalid signing algorithm")
	ErrEmptySecretKey   = errors.New("secret key cannot be empty")
	ErrInvalidDuration  = errors.New("duration must be positive")
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims carried by both token kinds. Subject holds the user id.
type Claims struct {
	Role string    `json:"role"`
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string { return c.Subject }

// Remaining is how long the token stays valid after now.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

// TokenPair is returned by every endpoint that signs a user in.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

type TokenService struct {
	cfg config.JWTConfig
	now func() time.Time
}

func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	if cfg.Secret == "" || cfg.RefreshSecret == "" {
		return nil, ErrEmptySecretKey
	}
	if cfg.Expire <= 0 || cfg.RefreshExpire <= 0 {
		return nil, ErrInvalidDuration
	}
	return &TokenService{cfg: cfg, now: time.Now}, nil
}

func (s *TokenService) GeneratePair(userID, role string) (TokenPair, error) {
	access, err := s.sign(userID, role, AccessToken)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, role, RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.Expire / time.Second),
		TokenType:    "Bearer",
	}, nil
}

func (s *TokenService) GenerateAccess(userID, role string) (string, error) {
	return s.sign(userID, role, AccessToken)
}

func (s *TokenService) sign(userID, role string, typ TokenType) (string, error) {
	secret, ttl := s.keyFor(typ)
	now := s.now()
	claims := &Claims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			// distinct ids keep two tokens minted in the same second from colliding
			ID: uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *TokenService) keyFor(typ TokenType) ([]byte, time.Duration) {
	if typ == RefreshToken {
		return []byte(s.cfg.RefreshSecret), s.cfg.RefreshExpire
	}
	return []byte(s.cfg.Secret), s.cfg.Expire
}

// ValidateAccess parses an access token; refresh tokens are rejected.
func (s *TokenService) ValidateAccess(token string) (*Claims, error) {
	return s.validate(token, AccessToken)
}

// ValidateRefresh parses a refresh token signed with the refresh secret.
func (s *TokenService) ValidateRefresh(token string) (*Claims, error) {
	return s.validate(token, RefreshToken)
}

func (s *TokenService) validate(tokenString string, typ TokenType) (*Claims, error) {
	secret, _ := s.keyFor(typ)
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidAlgorithm
		}
		return secret, nil
	},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != typ || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssuedBefore reports whether the token predates watermark. Token
// timestamps have second precision, so the watermark is truncated.
func (c *Claims) IssuedBefore(watermark *time.Time) bool {
	if watermark == nil || c.IssuedAt == nil {
		return false
	}
	return c.IssuedAt.Time.Before(watermark.Truncate(time.Second))
}
