package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single outcome for every validation failure:
// bad signature, malformed payload, or expiry. Callers cannot tell the
// cases apart and neither can anyone probing the API.
var ErrInvalidToken = errors.New("invalid token")

// Each token authorizes exactly one kind of use. The guards check the
// kind after signature validation, so an auth token cannot drive a
// password reset and a reset token cannot call the API.
const (
	TokenKindAuth  = "auth"
	TokenKindReset = "reset"
)

// Claims is the payload of both token kinds. Auth tokens carry the
// subject's roles; reset tokens omit them since they authorize exactly
// one action.
type Claims struct {
	Kind  string   `json:"kind"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAuthToken mints a signed token for API access. Issued only
// after successful authentication.
func GenerateAuthToken(secret string, email string, roles []string, ttl time.Duration) (string, error) {
	return sign(secret, Claims{
		Kind:  TokenKindAuth,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
}

// GenerateResetToken mints a signed password-reset token. The narrower
// payload deliberately has no roles.
func GenerateResetToken(secret string, email string, ttl time.Duration) (string, error) {
	return sign(secret, Claims{
		Kind: TokenKindReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
}

func sign(secret string, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ParseToken validates a token string and returns its claims. The
// signature is verified before any claim is trusted.
func ParseToken(tokenStr string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
