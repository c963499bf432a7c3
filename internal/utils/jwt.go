// Package utils issues the staff tokens the POS endpoints accept.  Tokens
// are normally minted by the cinema auth service; this helper exists for
// local terminals and tests.
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaffToken is a signed HS256 JWT and its expiry.
type StaffToken struct {
	Token string
	Exp   time.Time
}

// NewStaffToken signs a token carrying the staff id as subject and the
// POS role (CASHIER or MANAGER).
func NewStaffToken(secret, staffID, role string, ttl time.Duration) (StaffToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  staffID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return StaffToken{}, err
	}
	return StaffToken{Token: signed, Exp: exp}, nil
}
