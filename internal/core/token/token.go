// Package token issues the session token of the rewards simulation: a
// JWT with alg "none" and an empty signature segment, byte-compatible
// with the tokens the original front end minted for itself. It carries
// identity only — there is no signature, so it must never be treated as
// a trust boundary. Authorization always goes back to the session slot
// in the store.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"elevate-rewards/internal/domain"
)

type Claims struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

type Issuer struct {
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// Issue returns "<header>.<payload>." for the given user.
func (i *Issuer) Issue(u domain.User) (string, error) {
	claims := Claims{
		ID:    u.ID,
		Role:  string(u.Role),
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(i.now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	return t.SignedString(jwt.UnsafeAllowNoneSignatureType)
}

// Parse decodes an unsigned token back into its claims.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseWithClaims(
		tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodNone {
				return nil, fmt.Errorf("unexpected alg %q", t.Method.Alg())
			}
			return jwt.UnsafeAllowNoneSignatureType, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}
