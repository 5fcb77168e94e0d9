package account

import (
	"context"
	"strings"
	"sync"

	"github.com/fjod/techmart/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Directory lists the users shipped with the static catalog data.
type Directory interface {
	Users(ctx context.Context) []domain.UserRecord
}

type emptyDirectory struct{}

func (emptyDirectory) Users(context.Context) []domain.UserRecord { return nil }

// hashIndex remembers the bcrypt hash computed for a directory user's plaintext
// password so each one is hashed once per process.
type hashIndex struct {
	mu     sync.Mutex
	cost   int
	hashes map[string][]byte
}

func newHashIndex(cost int) *hashIndex {
	return &hashIndex{cost: cost, hashes: make(map[string][]byte)}
}

// hashFor returns the stored hash for rec, hashing a plaintext password on first use.
func (h *hashIndex) hashFor(rec domain.UserRecord) ([]byte, error) {
	if rec.PasswordHash != "" {
		return []byte(rec.PasswordHash), nil
	}
	if rec.Password == "" {
		return nil, nil
	}

	key := strings.ToLower(rec.Email) + "\x00" + rec.Password
	h.mu.Lock()
	defer h.mu.Unlock()
	if hash, ok := h.hashes[key]; ok {
		return hash, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(rec.Password), h.cost)
	if err != nil {
		return nil, err
	}
	h.hashes[key] = hash
	return hash, nil
}

func findByEmail(records []domain.UserRecord, email string) (domain.UserRecord, bool) {
	for _, rec := range records {
		if strings.EqualFold(rec.Email, email) {
			return rec, true
		}
	}
	return domain.UserRecord{}, false
}
