package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/example/social-auth/config"
	"github.com/example/social-auth/internal/domain"
)

func testAccount() *domain.Account {
	return &domain.Account{
		ID:          "acc-1",
		Email:       "bob@example.com",
		Username:    "bob",
		DisplayName: "Bob",
	}
}

func TestSignerRejectsShortKey(t *testing.T) {
	cfg := testConfig()
	cfg.TokenKey = "too-short"
	if _, err := NewCredentialSigner(cfg); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	signer, err := NewCredentialSigner(testConfig())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, err := signer.Issue(testAccount())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	principal, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.AccountID != "acc-1" || principal.Username != "bob" || principal.Email != "bob@example.com" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestVerifyExpired(t *testing.T) {
	signer, err := NewCredentialSigner(testConfig())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, err := signer.Issue(testAccount())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Advance the clock past the 10 minute validity window.
	signer.(*credentialSigner).now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	if _, err := signer.Verify(token); !errors.Is(err, ErrSessionTokenExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	cfg := testConfig()
	signer, err := NewCredentialSigner(cfg)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, err := signer.Issue(testAccount())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	otherCfg := testConfig()
	otherCfg.TokenKey = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"
	other, err := NewCredentialSigner(otherCfg)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrSessionTokenSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	signer, err := NewCredentialSigner(testConfig())
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := signer.Verify(token); !errors.Is(err, ErrSessionTokenMalformed) {
			t.Fatalf("token %q: expected malformed, got %v", token, err)
		}
	}
}

func mustSigner(t *testing.T, cfg *config.Config) CredentialSigner {
	t.Helper()
	signer, err := NewCredentialSigner(cfg)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}
