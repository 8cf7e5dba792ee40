package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/example/social-auth/config"
	repo "github.com/example/social-auth/internal/adapters/postgres"
	"github.com/example/social-auth/internal/domain"
	pkglog "github.com/example/social-auth/pkg/log"
)

const refreshTokenBytes = 32

// RefreshTokenStore manages the append-only rotation chain of long-lived
// tokens owned by an account.
type RefreshTokenStore interface {
	// Mint appends a fresh token to the account and persists both atomically.
	// The returned token's Value is handed to the caller for out-of-band
	// delivery (an HTTP-only cookie).
	Mint(ctx context.Context, account *domain.Account) (*domain.RefreshToken, error)
	// Validate finds the presented value within the account's collection.
	Validate(ctx context.Context, account *domain.Account, presented string) (*domain.RefreshToken, error)
	// Revoke marks the token revoked and persists the owning account.
	Revoke(ctx context.Context, account *domain.Account, token *domain.RefreshToken) error
	// Rotate validates the presented token, revokes it with a replaced-by
	// link, and mints its successor.
	Rotate(ctx context.Context, account *domain.Account, presented string) (*domain.RefreshToken, error)
}

type refreshTokenStore struct {
	accounts repo.AccountRepository
	logger   pkglog.Logger
	ttl      time.Duration
	now      func() time.Time

	// Serializes read-modify-write of a single account's token collection
	// so concurrent mints never lose an append.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRefreshTokenStore(cfg *config.Config, logger pkglog.Logger, accounts repo.AccountRepository) RefreshTokenStore {
	return &refreshTokenStore{
		accounts: accounts,
		logger:   logger,
		ttl:      cfg.RefreshTTL,
		now:      time.Now,
		locks:    map[string]*sync.Mutex{},
	}
}

func (s *refreshTokenStore) Mint(ctx context.Context, account *domain.Account) (*domain.RefreshToken, error) {
	unlock := s.lockAccount(account.ID)
	defer unlock()
	return s.mintLocked(ctx, account)
}

func (s *refreshTokenStore) Validate(_ context.Context, account *domain.Account, presented string) (*domain.RefreshToken, error) {
	token := account.FindRefreshToken(presented)
	if token == nil {
		return nil, ErrTokenNotFound
	}
	if !token.IsActive(s.now()) {
		return nil, ErrTokenInactive
	}
	return token, nil
}

func (s *refreshTokenStore) Revoke(ctx context.Context, account *domain.Account, token *domain.RefreshToken) error {
	unlock := s.lockAccount(account.ID)
	defer unlock()
	now := s.now()
	token.RevokedAt = &now
	return s.accounts.Save(ctx, account)
}

func (s *refreshTokenStore) Rotate(ctx context.Context, account *domain.Account, presented string) (*domain.RefreshToken, error) {
	unlock := s.lockAccount(account.ID)
	defer unlock()

	old := account.FindRefreshToken(presented)
	if old == nil {
		return nil, ErrTokenNotFound
	}
	if !old.IsActive(s.now()) {
		// A revoked token that was superseded is being replayed; the real
		// successor is already out there.
		if old.IsRevoked() && old.ReplacedByID != nil {
			s.logger.Warn().Str("account_id", account.ID).Msg("revoked refresh token replayed")
		}
		return nil, ErrTokenInactive
	}

	// Append, revoke and link in memory first, then write once: the
	// successor and the revocation of its predecessor must land together.
	next, err := newRefreshToken(account.ID, s.now(), s.ttl)
	if err != nil {
		return nil, err
	}
	account.RefreshTokens = append(account.RefreshTokens, *next)
	// The append may have reallocated the token slice.
	old = account.FindRefreshToken(presented)
	now := s.now()
	old.RevokedAt = &now
	old.ReplacedByID = &next.ID
	if err := s.accounts.Save(ctx, account); err != nil {
		account.RefreshTokens = account.RefreshTokens[:len(account.RefreshTokens)-1]
		old = account.FindRefreshToken(presented)
		old.RevokedAt = nil
		old.ReplacedByID = nil
		return nil, err
	}
	return account.FindRefreshToken(next.Value), nil
}

func (s *refreshTokenStore) mintLocked(ctx context.Context, account *domain.Account) (*domain.RefreshToken, error) {
	token, err := newRefreshToken(account.ID, s.now(), s.ttl)
	if err != nil {
		return nil, err
	}
	account.RefreshTokens = append(account.RefreshTokens, *token)
	if err := s.accounts.Save(ctx, account); err != nil {
		account.RefreshTokens = account.RefreshTokens[:len(account.RefreshTokens)-1]
		return nil, err
	}
	return &account.RefreshTokens[len(account.RefreshTokens)-1], nil
}

// newRefreshToken builds the token entirely in code, ID included, so callers
// can reference it (replaced-by links) before any database round trip.
func newRefreshToken(accountID string, now time.Time, ttl time.Duration) (*domain.RefreshToken, error) {
	id, err := newTokenID()
	if err != nil {
		return nil, err
	}
	value, err := randomTokenValue()
	if err != nil {
		return nil, err
	}
	return &domain.RefreshToken{
		ID:        id,
		AccountID: accountID,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func newTokenID() (string, error) {
	uuid := make([]byte, 16)
	if _, err := rand.Read(uuid); err != nil {
		return "", err
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:]), nil
}

func (s *refreshTokenStore) lockAccount(id string) func() {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func randomTokenValue() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
