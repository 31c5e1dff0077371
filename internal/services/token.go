package services

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const refreshTokenType = "refresh"

// Claims is the payload of both access and refresh tokens. Refresh tokens
// carry Type "refresh"; access tokens leave it empty.
type Claims struct {
	jwt.RegisteredClaims
	Fingerprint string  `json:"prv"`
	Role        string  `json:"rol"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Avatar      *string `json:"avatar"`
	UserCode    string  `json:"user_code"`
	Type        string  `json:"type,omitempty"`
}

func (c *Claims) IsRefresh() bool {
	return c.Type == refreshTokenType
}

// SigningFingerprint identifies the signing context a token was minted in.
func SigningFingerprint(appKey string) string {
	sum := sha1.Sum([]byte(appKey))
	return hex.EncodeToString(sum[:])
}

// HMACSigner signs and verifies HS256 tokens.
type HMACSigner struct {
	secret []byte
	issuer string
}

func NewHMACSigner(secret, issuer string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret), issuer: issuer}
}

func (s *HMACSigner) SignToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *HMACSigner) VerifyToken(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}
