package usecase

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/social-auth/internal/adapters/facebook"
	repo "github.com/example/social-auth/internal/adapters/postgres"
	"github.com/example/social-auth/internal/domain"
	pkglog "github.com/example/social-auth/pkg/log"
)

// federatedPhotoPrefix namespaces provisioned profile pictures away from
// locally uploaded photo IDs.
const federatedPhotoPrefix = "fb_"

// FederatedIdentity is the transient result of a verified third-party token.
// It is consumed once, to locate or provision an account.
type FederatedIdentity struct {
	ExternalID  string
	DisplayName string
	Email       string
	PictureURL  string
}

// FederatedLoginVerifier validates third-party access tokens and maps the
// external identity onto a local account.
type FederatedLoginVerifier interface {
	Verify(ctx context.Context, accessToken string) (*FederatedIdentity, error)
	// ResolveAccount returns the existing account for the identity or
	// provisions one on first sight. The bool reports whether the account
	// was created by this call.
	ResolveAccount(ctx context.Context, identity *FederatedIdentity) (*domain.Account, bool, error)
}

type federatedLoginVerifier struct {
	graph    facebook.Client
	accounts repo.AccountRepository
	logger   pkglog.Logger
}

func NewFederatedLoginVerifier(logger pkglog.Logger, graph facebook.Client, accounts repo.AccountRepository) FederatedLoginVerifier {
	return &federatedLoginVerifier{graph: graph, accounts: accounts, logger: logger}
}

// Verify runs the two sequential provider calls: token introspection with the
// app credentials, then the profile fetch with the token itself. Both must
// succeed for the identity to be established.
func (v *federatedLoginVerifier) Verify(ctx context.Context, accessToken string) (*FederatedIdentity, error) {
	if err := v.graph.InspectToken(ctx, accessToken); err != nil {
		return nil, mapGraphErr(err)
	}
	profile, err := v.graph.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, mapGraphErr(err)
	}
	return &FederatedIdentity{
		ExternalID:  profile.ID,
		DisplayName: profile.Name,
		Email:       profile.Email,
		PictureURL:  profile.Picture.Data.URL,
	}, nil
}

func (v *federatedLoginVerifier) ResolveAccount(ctx context.Context, identity *FederatedIdentity) (*domain.Account, bool, error) {
	// The external id doubles as the username, which makes provisioning
	// idempotent: a second login with the same identity finds this account.
	account, err := v.accounts.FindByUsername(ctx, identity.ExternalID)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	account = &domain.Account{
		Email:       identity.Email,
		Username:    identity.ExternalID,
		DisplayName: identity.DisplayName,
		Photos: []domain.Photo{{
			ID:     federatedPhotoPrefix + identity.ExternalID,
			URL:    identity.PictureURL,
			IsMain: true,
		}},
	}
	if err := v.accounts.Create(ctx, account); err != nil {
		return nil, false, ErrProvisioningFailed
	}
	v.logger.Info().Str("account_id", account.ID).Msg("federated account provisioned")
	return account, true, nil
}

func mapGraphErr(err error) error {
	if errors.Is(err, facebook.ErrUnavailable) {
		return ErrUpstreamUnavailable
	}
	return ErrUnauthorized
}
