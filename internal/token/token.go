package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "authgate/internal/errors"
	"authgate/internal/model"
)

// Claims carries the identity facts embedded in an access token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// UserID returns the subject the token was issued for.
func (c *Claims) UserID() string {
	return c.Subject
}

// Service issues and verifies signed bearer tokens. Signing key and lifetime
// are fixed for the process; verification is purely computational and never
// consults storage.
type Service struct {
	secret []byte
	expiry time.Duration
}

// NewService creates a token service with the given secret and token lifetime.
func NewService(secret string, expiry time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Issue signs a new access token for the user.
func (s *Service) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a token string. Expired tokens return
// apperrors.ErrTokenExpired; anything else wrong with the token returns
// apperrors.ErrTokenInvalid.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	if !token.Valid {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}
