package usecase

import (
	"context"

	natsadapter "github.com/example/social-auth/internal/adapters/nats"
	repo "github.com/example/social-auth/internal/adapters/postgres"
	"github.com/example/social-auth/internal/domain"
	pkglog "github.com/example/social-auth/pkg/log"
)

// Session is the descriptor returned to the caller on every successful use
// case. The refresh token travels separately, as a cookie set by the HTTP
// adapter.
type Session struct {
	DisplayName string  `json:"displayName"`
	Image       *string `json:"image"`
	Token       string  `json:"token"`
	Username    string  `json:"username"`
}

// Orchestrator composes identity establishment, refresh-token rotation and
// session-token issuance into the top-level authentication use cases.
type Orchestrator interface {
	Login(ctx context.Context, email, password string) (*Session, *domain.RefreshToken, error)
	Register(ctx context.Context, email, username, displayName, password string) (*Session, *domain.RefreshToken, error)
	CurrentSession(ctx context.Context, principal *Principal) (*Session, *domain.RefreshToken, error)
	RefreshSession(ctx context.Context, principal *Principal, presented string) (*Session, *domain.RefreshToken, error)
	FacebookLogin(ctx context.Context, accessToken string) (*Session, *domain.RefreshToken, error)
}

type orchestrator struct {
	logger    pkglog.Logger
	accounts  repo.AccountRepository
	identity  IdentityProvider
	federated FederatedLoginVerifier
	refresh   RefreshTokenStore
	signer    CredentialSigner
	events    natsadapter.AccountEventClient
}

func NewOrchestrator(logger pkglog.Logger, accounts repo.AccountRepository, identity IdentityProvider, federated FederatedLoginVerifier, refresh RefreshTokenStore, signer CredentialSigner, events natsadapter.AccountEventClient) Orchestrator {
	return &orchestrator{
		logger:    logger,
		accounts:  accounts,
		identity:  identity,
		federated: federated,
		refresh:   refresh,
		signer:    signer,
		events:    events,
	}
}

func (o *orchestrator) Login(ctx context.Context, email, password string) (*Session, *domain.RefreshToken, error) {
	account, err := o.identity.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	session, token, err := o.openSession(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	o.logger.Info().Str("account_id", account.ID).Msg("login")
	return session, token, nil
}

func (o *orchestrator) Register(ctx context.Context, email, username, displayName, password string) (*Session, *domain.RefreshToken, error) {
	account, err := o.identity.Register(ctx, email, username, displayName, password)
	if err != nil {
		return nil, nil, err
	}
	if o.events != nil {
		_ = o.events.AccountCreated(ctx, account.ID, account.Email, "register")
	}
	return o.openSession(ctx, account)
}

// CurrentSession mints a new refresh token on every authenticated profile
// fetch, keeping the client's cookie fresh.
func (o *orchestrator) CurrentSession(ctx context.Context, principal *Principal) (*Session, *domain.RefreshToken, error) {
	account, err := o.accounts.FindByEmail(ctx, principal.Email)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	return o.openSession(ctx, account)
}

// RefreshSession rotates the presented token: the old one is revoked with a
// replaced-by link and the minted successor is handed back so the caller can
// replace the client's cookie. Replay of a spent token is detectable.
func (o *orchestrator) RefreshSession(ctx context.Context, principal *Principal, presented string) (*Session, *domain.RefreshToken, error) {
	account, err := o.accounts.FindByUsername(ctx, principal.Username)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	next, err := o.refresh.Rotate(ctx, account, presented)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	signed, err := o.signer.Issue(account)
	if err != nil {
		return nil, nil, err
	}
	return describe(account, signed), next, nil
}

func (o *orchestrator) FacebookLogin(ctx context.Context, accessToken string) (*Session, *domain.RefreshToken, error) {
	identity, err := o.federated.Verify(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}
	account, created, err := o.federated.ResolveAccount(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	if created && o.events != nil {
		_ = o.events.AccountCreated(ctx, account.ID, account.Email, "facebook")
	}
	session, token, err := o.openSession(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	o.logger.Info().Str("account_id", account.ID).Bool("provisioned", created).Msg("facebook login")
	return session, token, nil
}

func (o *orchestrator) openSession(ctx context.Context, account *domain.Account) (*Session, *domain.RefreshToken, error) {
	token, err := o.refresh.Mint(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	signed, err := o.signer.Issue(account)
	if err != nil {
		return nil, nil, err
	}
	return describe(account, signed), token, nil
}

func describe(account *domain.Account, signed string) *Session {
	return &Session{
		DisplayName: account.DisplayName,
		Image:       account.MainPhotoURL(),
		Token:       signed,
		Username:    account.Username,
	}
}
