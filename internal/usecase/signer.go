package usecase

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/social-auth/config"
	"github.com/example/social-auth/internal/domain"
)

// Principal is the claim set carried by a session token: everything a
// verifying node needs, with no session-store round trip.
type Principal struct {
	AccountID string
	Username  string
	Email     string
}

// CredentialSigner issues and verifies short-lived stateless session tokens.
// Parse exposes the raw claim set for collaborators (bearer middleware, the
// NATS verify responder) that do their own claim mapping.
type CredentialSigner interface {
	Issue(account *domain.Account) (string, error)
	Verify(token string) (*Principal, error)
	Parse(token string) (*jwt.Token, jwt.MapClaims, error)
}

type credentialSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewCredentialSigner(cfg *config.Config) (CredentialSigner, error) {
	if len(cfg.TokenKey) < 64 {
		return nil, errors.New("signing key shorter than 64 bytes")
	}
	return &credentialSigner{key: []byte(cfg.TokenKey), ttl: cfg.SessionTTL, now: time.Now}, nil
}

func (s *credentialSigner) Issue(account *domain.Account) (string, error) {
	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":      account.ID,
		"username": account.Username,
		"email":    account.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	})
	return token.SignedString(s.key)
}

func (s *credentialSigner) Parse(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	return token, claims, err
}

func (s *credentialSigner) Verify(tokenStr string) (*Principal, error) {
	_, claims, err := s.Parse(tokenStr)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrSessionTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrSessionTokenSignature
	default:
		return nil, ErrSessionTokenMalformed
	}

	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || username == "" {
		return nil, ErrSessionTokenMalformed
	}
	return &Principal{AccountID: sub, Username: username, Email: email}, nil
}
