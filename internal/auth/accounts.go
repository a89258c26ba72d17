package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"salon/internal/apperr"
	"salon/internal/store"
)

// Account is a salon staff login.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// AccountStore persists accounts and issued refresh tokens.
type AccountStore interface {
	// CreateAccount fails with email_in_use when the email is taken.
	CreateAccount(ctx context.Context, a Account) error
	// AccountByEmail returns not_found when no account matches.
	AccountByEmail(ctx context.Context, email string) (Account, error)
	SaveRefreshToken(ctx context.Context, accountID, token string, expiresAt time.Time) error
	// ActiveRefreshToken returns the owning account id for a token that is
	// stored, unrevoked and unexpired at now.
	ActiveRefreshToken(ctx context.Context, token string, now time.Time) (string, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailInUse(email string) error {
	return apperr.Newf(apperr.KindEmailInUse, "%s is already registered", email)
}

func tokenNotActive() error {
	return apperr.New(apperr.KindUnauthenticated, "session has expired, please sign in again")
}

// SQLAccounts stores accounts in the accounts and refresh_tokens tables.
type SQLAccounts struct {
	db *store.DB
}

// NewSQLAccounts creates a repo.
func NewSQLAccounts(db *store.DB) *SQLAccounts {
	return &SQLAccounts{db: db}
}

func (s *SQLAccounts) CreateAccount(ctx context.Context, a Account) error {
	email := normalizeEmail(a.Email)
	if _, err := s.AccountByEmail(ctx, email); err == nil {
		return emailInUse(email)
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	_, err := s.db.Client.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO accounts (id, email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), a.ID, email, a.Name, a.PasswordHash, a.CreatedAt.UTC())
	if err != nil {
		// lost a race with a concurrent signup
		if _, lookupErr := s.AccountByEmail(ctx, email); lookupErr == nil {
			return emailInUse(email)
		}
		return apperr.Wrap(apperr.KindUnavailable, fmt.Errorf("insert account: %w", err), "account store unavailable")
	}
	return nil
}

func (s *SQLAccounts) AccountByEmail(ctx context.Context, email string) (Account, error) {
	row := s.db.Client.QueryRowContext(ctx, s.db.Rebind(`
		SELECT id, email, name, password_hash, created_at FROM accounts WHERE email = ?
	`), normalizeEmail(email))
	var a Account
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, apperr.New(apperr.KindNotFound, "account not found")
		}
		return Account{}, apperr.Wrap(apperr.KindUnavailable, err, "account store unavailable")
	}
	return a, nil
}

func (s *SQLAccounts) SaveRefreshToken(ctx context.Context, accountID, token string, expiresAt time.Time) error {
	_, err := s.db.Client.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO refresh_tokens (account_id, token, expires_at)
		VALUES (?, ?, ?)
	`), accountID, token, expiresAt.UTC())
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, fmt.Errorf("save refresh token: %w", err), "account store unavailable")
	}
	return nil
}

func (s *SQLAccounts) ActiveRefreshToken(ctx context.Context, token string, now time.Time) (string, error) {
	row := s.db.Client.QueryRowContext(ctx, s.db.Rebind(`
		SELECT account_id, expires_at, revoked FROM refresh_tokens WHERE token = ?
	`), token)
	var (
		accountID string
		expires   time.Time
		revoked   bool
	)
	if err := row.Scan(&accountID, &expires, &revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", tokenNotActive()
		}
		return "", apperr.Wrap(apperr.KindUnavailable, err, "account store unavailable")
	}
	if revoked || !now.Before(expires) {
		return "", tokenNotActive()
	}
	return accountID, nil
}

// RevokeRefreshToken marks a token revoked.
func (s *SQLAccounts) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := s.db.Client.ExecContext(ctx, s.db.Rebind(`UPDATE refresh_tokens SET revoked = TRUE WHERE token = ?`), token)
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, fmt.Errorf("revoke refresh token: %w", err), "account store unavailable")
	}
	return nil
}

type refreshEntry struct {
	accountID string
	expires   time.Time
	revoked   bool
}

// MemoryAccounts keeps accounts in process memory.
type MemoryAccounts struct {
	mu       sync.RWMutex
	accounts map[string]Account
	tokens   map[string]*refreshEntry
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: map[string]Account{}, tokens: map[string]*refreshEntry{}}
}

func (m *MemoryAccounts) CreateAccount(_ context.Context, a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.Email = normalizeEmail(a.Email)
	if _, ok := m.accounts[a.Email]; ok {
		return emailInUse(a.Email)
	}
	m.accounts[a.Email] = a
	return nil
}

func (m *MemoryAccounts) AccountByEmail(_ context.Context, email string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[normalizeEmail(email)]
	if !ok {
		return Account{}, apperr.New(apperr.KindNotFound, "account not found")
	}
	return a, nil
}

func (m *MemoryAccounts) SaveRefreshToken(_ context.Context, accountID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = &refreshEntry{accountID: accountID, expires: expiresAt}
	return nil
}

func (m *MemoryAccounts) ActiveRefreshToken(_ context.Context, token string, now time.Time) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.tokens[token]
	if !ok || e.revoked || !now.Before(e.expires) {
		return "", tokenNotActive()
	}
	return e.accountID, nil
}

func (m *MemoryAccounts) RevokeRefreshToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.tokens[token]; ok {
		e.revoked = true
	}
	return nil
}
