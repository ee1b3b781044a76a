package users

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrUnknownHasher = errors.New("unknown password hasher")

// Hasher turns a secret into the value kept in the credential index.
type Hasher interface {
	Hash(secret string) ([]byte, error)
	Matches(hash []byte, secret string) bool
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(secret string) ([]byte, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(secret), cost)
}

func (BcryptHasher) Matches(hash []byte, secret string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}

// PlainHasher stores secrets verbatim. Demo and test use only.
type PlainHasher struct{}

func (PlainHasher) Hash(secret string) ([]byte, error) {
	return []byte(secret), nil
}

func (PlainHasher) Matches(hash []byte, secret string) bool {
	return subtle.ConstantTimeCompare(hash, []byte(secret)) == 1
}

func NewHasher(kind string, cost int) (Hasher, error) {
	switch kind {
	case "bcrypt", "":
		return BcryptHasher{Cost: cost}, nil
	case "plain":
		return PlainHasher{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, kind)
	}
}
