package tool

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes share passwords with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares password with hash. When the hash was produced with a lower
// cost than the hasher's, a rehash with the current cost is returned as upgraded.
func (h *BcryptHasher) Verify(password, hash string) (ok bool, upgraded string) {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			DefaultLogger.Warnf("[Hasher] Unusable password hash: %v", err)
		}
		return false, ""
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost >= h.cost {
		return true, ""
	}
	rehashed, err := h.Hash(password)
	if err != nil {
		DefaultLogger.Warnf("[Hasher] Failed to rehash password: %v", err)
		return true, ""
	}
	return true, rehashed
}
