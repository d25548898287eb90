package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/database/repository"
)

const DefaultTokenTTL = 72 * time.Hour

type TokenClaims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the HS256 bearer tokens of the JSON API.
type TokenService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenService(users repository.UserRepository, secret string, issuer string) *TokenService {
	return &TokenService{
		users:  users,
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		issuer: issuer,
	}
}

func (s *TokenService) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.Id),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) Parse(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a bearer token to the current state of its user.
func (s *TokenService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetById(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return user, err
}
