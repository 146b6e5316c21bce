package utils // package utils provides helper functions for token issuing and account verification

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken represents a signed JWT along with its expiry. The Token field
// is the serialized JWT string that clients attach verbatim as the
// Authorization header value.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// Claims is the decoded content of a marketplace access token.
type Claims struct {
	UserID string
	Email  string
}

// NewAccessToken builds and signs an HS256 JWT for a user. The JWT carries
// the user ID as subject, the email, expiration and issued-at.
func NewAccessToken(secret, userID, email string, ttlHours int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlHours) * time.Hour)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ErrInvalidToken is returned for tokens that fail parsing, signature
// verification, or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// ParseAccessToken verifies an HS256 token and returns its claims. Only HMAC
// signing methods are accepted; anything else is rejected.
func ParseAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	email, _ := mc["email"].(string)
	if sub == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: sub, Email: email}, nil
}
