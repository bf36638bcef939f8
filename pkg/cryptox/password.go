package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by VerifyPassword for any hash that does
// not match, including hashes that cannot be parsed.
var ErrPasswordMismatch = errors.New("cryptox: password does not match")

var cost atomic.Int64

func init() {
	cost.Store(int64(bcrypt.DefaultCost))
}

// SetCost changes the bcrypt work factor used by HashPassword. Values out of
// bcrypt's range are clamped. Existing hashes keep their own cost.
func SetCost(c int) {
	c = max(c, bcrypt.MinCost)
	c = min(c, bcrypt.MaxCost)
	cost.Store(int64(c))
}

// Cost reports the work factor HashPassword currently uses.
func Cost() int { return int(cost.Load()) }

// HashPassword returns a salted bcrypt hash of the peppered password.
//
// The password is first run through HMAC-SHA256 keyed with the pepper. That
// binds the hash to this deployment and keeps bcrypt's input at a fixed 44
// bytes, well under its 72 byte limit.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prepare(password), Cost())
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash made by
// HashPassword. The comparison is constant time.
func VerifyPassword(password, encodedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), prepare(password))
	if err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// HashCost returns the work factor embedded in a bcrypt hash.
func HashCost(encodedHash string) (int, error) {
	return bcrypt.Cost([]byte(encodedHash))
}

func prepare(password string) []byte {
	mac := hmac.New(sha256.New, []byte(currentPepper()))
	mac.Write([]byte(password))
	sum := mac.Sum(nil)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}
