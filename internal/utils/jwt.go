package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken = signed JWT + expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken builds an HS256 JWT for a subject and role. The admin
// HTTP surface has exactly one account, so subject is always "admin" —
// this stays a general subject/role pair rather than a fixed literal
// to preserve the same token shape admin.JWTAuth validates. There is
// no refresh token: the admin surface is operated infrequently enough
// that re-authenticating past AccessToken.Exp is not a usability
// burden.
func NewAccessToken(secret, subject, role string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
