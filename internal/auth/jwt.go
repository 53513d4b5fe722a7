// Package auth issues and verifies the signed bearer credential used by the API.
//
// The credential is a stateless HS256 JWT. Everything needed to identify the
// caller (user id in "sub", email in "email") is inside the signed token, so
// verification needs only the secret and never touches the database.
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:  {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<userID>","email":"a@b.c","iss":"codeminder","exp":...}
//
// There is no refresh or revocation: a token is valid until it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "codeminder"

// ErrTokenExpired is returned by Validate for well-formed tokens past their expiry.
var ErrTokenExpired = errors.New("auth: token expired")

// Identity is the caller recovered from a valid token.
type Identity struct {
	UserID string
	Email  string
}

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; ttl is the lifetime of issued tokens.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// claims is the JWT payload. Subject carries the user id.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate signs a token for the user with the service's default lifetime.
func (s *TokenService) Generate(userID, email string) (string, error) {
	return s.GenerateWithDuration(userID, email, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime.
// Tests use it to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID, email string, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: user id is required")
	}
	now := s.now()

	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity it encodes.
//
// ALGORITHM CONFUSION:
// jwt.WithValidMethods pins HS256, so a token claiming "none" or an RSA
// algorithm is rejected before the key function is consulted.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, errors.New("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
