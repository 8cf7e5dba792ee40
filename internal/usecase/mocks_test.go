package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/example/social-auth/config"
	"github.com/example/social-auth/internal/domain"
	pkglog "github.com/example/social-auth/pkg/log"
)

type mockAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	nextID   int
	saveErr  error
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: map[string]*domain.Account{}}
}

func (r *mockAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == "" {
		r.nextID++
		account.ID = fmt.Sprintf("acc-%d", r.nextID)
	}
	r.assignTokenIDs(account)
	r.accounts[account.ID] = account
	return nil
}

func (r *mockAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.findBy(func(a *domain.Account) bool { return a.Email == email })
}

func (r *mockAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	return r.findBy(func(a *domain.Account) bool { return a.Username == username })
}

func (r *mockAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *mockAccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *mockAccountRepo) Save(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.assignTokenIDs(account)
	r.accounts[account.ID] = account
	return nil
}

func (r *mockAccountRepo) findBy(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if match(a) {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// assignTokenIDs stands in for the database's uuid default.
func (r *mockAccountRepo) assignTokenIDs(account *domain.Account) {
	for i := range account.RefreshTokens {
		if account.RefreshTokens[i].ID == "" {
			r.nextID++
			account.RefreshTokens[i].ID = fmt.Sprintf("tok-%d", r.nextID)
		}
	}
}

type recordedEvent struct {
	accountID string
	source    string
}

type recordingEventClient struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (c *recordingEventClient) AccountCreated(_ context.Context, accountID, _, source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, recordedEvent{accountID: accountID, source: source})
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		TokenKey:   "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		SessionTTL: 10 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func testLogger() pkglog.Logger { return pkglog.New("test") }
