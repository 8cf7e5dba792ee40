package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/social-auth/internal/domain"
)

func newTestRefreshStore(t *testing.T) (RefreshTokenStore, *mockAccountRepo, *domain.Account) {
	t.Helper()
	repo := newMockAccountRepo()
	account := testAccount()
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return NewRefreshTokenStore(testConfig(), testLogger(), repo), repo, account
}

func TestMintThenValidate(t *testing.T) {
	store, _, account := newTestRefreshStore(t)

	token, err := store.Mint(context.Background(), account)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if token.Value == "" {
		t.Fatalf("empty token value")
	}
	if !token.IsActive(time.Now()) {
		t.Fatalf("freshly minted token not active")
	}

	got, err := store.Validate(context.Background(), account, token.Value)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Value != token.Value {
		t.Fatalf("validate returned a different token")
	}
}

func TestValidateUnknownValue(t *testing.T) {
	store, _, account := newTestRefreshStore(t)
	if _, err := store.Validate(context.Background(), account, "no-such-token"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestValidateRevoked(t *testing.T) {
	store, _, account := newTestRefreshStore(t)
	token, err := store.Mint(context.Background(), account)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := store.Revoke(context.Background(), account, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := store.Validate(context.Background(), account, token.Value); !errors.Is(err, ErrTokenInactive) {
		t.Fatalf("expected inactive, got %v", err)
	}
}

func TestValidateExpired(t *testing.T) {
	store, _, account := newTestRefreshStore(t)
	token, err := store.Mint(context.Background(), account)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	store.(*refreshTokenStore).now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := store.Validate(context.Background(), account, token.Value); !errors.Is(err, ErrTokenInactive) {
		t.Fatalf("expected inactive, got %v", err)
	}
}

func TestConcurrentMintsKeepBothTokens(t *testing.T) {
	store, _, account := newTestRefreshStore(t)

	var wg sync.WaitGroup
	values := make([]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := store.Mint(context.Background(), account)
			if err != nil {
				t.Errorf("mint: %v", err)
				return
			}
			values[i] = token.Value
		}(i)
	}
	wg.Wait()

	if values[0] == values[1] {
		t.Fatalf("concurrent mints produced identical values")
	}
	for _, v := range values {
		if _, err := store.Validate(context.Background(), account, v); err != nil {
			t.Fatalf("token %q lost after concurrent mint: %v", v, err)
		}
	}
}

func TestRotateRevokesAndLinks(t *testing.T) {
	store, _, account := newTestRefreshStore(t)
	old, err := store.Mint(context.Background(), account)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	oldValue := old.Value

	next, err := store.Rotate(context.Background(), account, oldValue)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if next.Value == oldValue {
		t.Fatalf("rotation reused the token value")
	}

	spent := account.FindRefreshToken(oldValue)
	if spent == nil || !spent.IsRevoked() {
		t.Fatalf("rotated token not revoked")
	}
	if spent.ReplacedByID == nil || *spent.ReplacedByID != next.ID {
		t.Fatalf("replaced-by link missing")
	}
	if _, err := store.Validate(context.Background(), account, next.Value); err != nil {
		t.Fatalf("successor token invalid: %v", err)
	}
}

func TestRotateRejectsReplayedToken(t *testing.T) {
	store, _, account := newTestRefreshStore(t)
	old, err := store.Mint(context.Background(), account)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	oldValue := old.Value
	if _, err := store.Rotate(context.Background(), account, oldValue); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// Presenting the spent token again is a theft signal.
	if _, err := store.Rotate(context.Background(), account, oldValue); !errors.Is(err, ErrTokenInactive) {
		t.Fatalf("expected inactive on replay, got %v", err)
	}
}

func TestRotateIsAtomicOnPersistFailure(t *testing.T) {
	store, repo, account := newTestRefreshStore(t)
	old, err := store.Mint(context.Background(), account)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	oldValue := old.Value
	repo.saveErr = errors.New("db down")

	if _, err := store.Rotate(context.Background(), account, oldValue); err == nil {
		t.Fatalf("expected rotate to fail")
	}

	// A failed rotation must leave no trace: no successor, and the
	// presented token still active and unlinked.
	if len(account.RefreshTokens) != 1 {
		t.Fatalf("failed rotation left a successor on the account")
	}
	spent := account.FindRefreshToken(oldValue)
	if spent.IsRevoked() || spent.ReplacedByID != nil {
		t.Fatalf("failed rotation half-applied: %+v", spent)
	}

	repo.saveErr = nil
	if _, err := store.Rotate(context.Background(), account, oldValue); err != nil {
		t.Fatalf("rotate after recovery: %v", err)
	}
}

func TestMintRollsBackOnPersistFailure(t *testing.T) {
	store, repo, account := newTestRefreshStore(t)
	repo.saveErr = errors.New("db down")

	if _, err := store.Mint(context.Background(), account); err == nil {
		t.Fatalf("expected mint to fail")
	}
	if len(account.RefreshTokens) != 0 {
		t.Fatalf("failed mint left a token on the account")
	}
}
