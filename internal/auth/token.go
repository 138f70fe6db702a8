package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/helpdesk/internal"
	"github.com/golang-jwt/jwt/v5"
)

// TokenCodec issues and verifies stateless identity tokens.
type TokenCodec interface {
	Issue(subject string, ttl time.Duration) (string, error)
	Verify(token string) (string, error)
}

// Claims carries the subject email in the registered "sub" claim.
type Claims struct {
	jwt.RegisteredClaims
}

type JWTCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

type JWTOption func(*JWTCodec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) JWTOption {
	return func(c *JWTCodec) {
		c.now = now
	}
}

// NewJWTCodec builds an HMAC codec. algorithm is one of HS256, HS384, HS512.
func NewJWTCodec(secret, algorithm string, opts ...JWTOption) (*JWTCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}

	c := &JWTCodec{
		secret: []byte(secret),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for subject that expires at now+ttl.
func (c *JWTCodec) Issue(subject string, ttl time.Duration) (string, error) {
	now := c.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(c.method, claims)
	return token.SignedString(c.secret)
}

// Verify returns the token subject. Any defect, including expiry, yields ErrInvalidToken.
func (c *JWTCodec) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", internal.ErrInvalidToken.WithCause(err)
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", internal.ErrInvalidToken
	}
	return claims.Subject, nil
}
