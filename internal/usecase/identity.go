package usecase

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	repo "github.com/example/social-auth/internal/adapters/postgres"
	"github.com/example/social-auth/internal/domain"
	pkglog "github.com/example/social-auth/pkg/log"
)

const minPasswordLen = 8

// IdentityProvider authenticates password credentials and registers new
// password-backed accounts.
type IdentityProvider interface {
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
	Register(ctx context.Context, email, username, displayName, password string) (*domain.Account, error)
}

type identityProvider struct {
	accounts repo.AccountRepository
	logger   pkglog.Logger
}

func NewIdentityProvider(logger pkglog.Logger, accounts repo.AccountRepository) IdentityProvider {
	return &identityProvider{accounts: accounts, logger: logger}
}

// Authenticate fails with the same error for an unknown email, a wrong
// password, and a federation-only account, so callers cannot enumerate
// which accounts exist.
func (p *identityProvider) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := p.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !account.HasPassword() {
		return nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	return account, nil
}

func (p *identityProvider) Register(ctx context.Context, email, username, displayName, password string) (*domain.Account, error) {
	fields := map[string]string{}

	taken, err := p.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		fields["email"] = "Email taken"
	}

	taken, err = p.accounts.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		fields["username"] = "Username taken"
	}

	if len(password) < minPasswordLen {
		fields["password"] = "Password too short"
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		Email:        email,
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	p.logger.Info().Str("account_id", account.ID).Msg("account registered")
	return account, nil
}
