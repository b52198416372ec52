package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/HammerMeetNail/thoughtwall/internal/models"
)

type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type tokenClaims struct {
	Data tokenData `json:"data"`
	jwt.RegisteredClaims
}

type tokenData struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// Issue signs the user's identity claims with an expiry.
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Data: tokenData{
			ID:       user.ID.String(),
			Username: user.Username,
			Email:    user.Email,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and issuer. Every failure is ErrInvalidToken.
func (s *TokenService) Verify(raw string) (*models.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Data.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &models.Identity{
		ID:       id,
		Username: claims.Data.Username,
		Email:    claims.Data.Email,
	}, nil
}
