package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"weekstay/internal/app/services/auth"
	domainuser "weekstay/internal/domain/user"
)

var ErrInvalidToken = errors.New("security: invalid token")

type jwtClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec signs and verifies HS256 access tokens carrying the user identity.
type JWTCodec struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (c JWTCodec) Issue(claims auth.TokenClaims) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Username: claims.Username,
		Role:     string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(claims.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl())),
		},
	})
	return token.SignedString(c.Secret)
}

func (c JWTCodec) Parse(token string) (*auth.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return &auth.TokenClaims{
		UserID:   domainuser.ID(claims.Subject),
		Username: claims.Username,
		Role:     domainuser.Role(claims.Role),
	}, nil
}

func (c JWTCodec) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return time.Hour
}

func (c JWTCodec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
