package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"salon/internal/apperr"
	"salon/internal/flow"
	"salon/internal/metrics"
	"salon/internal/queue"
	"salon/internal/validate"
)

const minPasswordLen = 6

// SessionState is whether a user is signed in.
type SessionState string

const (
	SignedIn  SessionState = "signed_in"
	SignedOut SessionState = "signed_out"
)

// SessionEvent describes one authentication transition.
type SessionEvent struct {
	UserID string       `json:"userId"`
	Email  string       `json:"email"`
	State  SessionState `json:"state"`
	At     time.Time    `json:"at"`
}

// Session is returned by sign-in, sign-up and refresh.
type Session struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name,omitempty"`
	Tokens TokenPair `json:"tokens"`
}

// SignUpInput is the signup form.
type SignUpInput struct {
	Name            string `json:"name" validate:"notblank"`
	Email           string `json:"email" validate:"notblank"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// SignInInput is the login form.
type SignInInput struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// Options configures token signing.
type Options struct {
	SigningKey string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type listener struct {
	id int
	fn func(SessionEvent)
}

// Provider signs users up and in and tells listeners when that changes.
type Provider struct {
	accounts AccountStore
	opts     Options
	cost     int
	now      func() time.Time

	mu        sync.RWMutex
	listeners []listener
	nextID    int
}

// NewProvider creates a provider over an account store.
func NewProvider(accounts AccountStore, opts Options) *Provider {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 24 * time.Hour
	}
	return &Provider{accounts: accounts, opts: opts, cost: bcrypt.DefaultCost, now: time.Now}
}

// SignUp creates an account and signs it in.
func (p *Provider) SignUp(ctx context.Context, in SignUpInput) (Session, error) {
	var sess Session
	err := flow.New("signup").Run(ctx, func() error {
		return validate.Struct(in)
	}, func(ctx context.Context) error {
		email := normalizeEmail(in.Email)
		if err := validate.Var("email", email, "email"); err != nil {
			return apperr.New(apperr.KindInvalidEmail, "The email address is badly formatted")
		}
		if len(in.Password) < minPasswordLen {
			return apperr.Newf(apperr.KindWeakPassword, "Password should be at least %d characters", minPasswordLen)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), p.cost)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "could not create account")
		}
		acct := Account{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         strings.TrimSpace(in.Name),
			PasswordHash: string(hash),
			CreatedAt:    p.now().UTC(),
		}
		if err := p.accounts.CreateAccount(ctx, acct); err != nil {
			return err
		}
		sess, err = p.start(ctx, acct)
		return err
	})
	return sess, err
}

// SignIn checks credentials and starts a session.
func (p *Provider) SignIn(ctx context.Context, in SignInInput) (Session, error) {
	var sess Session
	err := flow.New("login").Run(ctx, func() error {
		return validate.Struct(in)
	}, func(ctx context.Context) error {
		acct, err := p.accounts.AccountByEmail(ctx, in.Email)
		if apperr.Is(err, apperr.KindNotFound) {
			return invalidCredentials()
		}
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(in.Password)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return invalidCredentials()
			}
			return apperr.Wrap(apperr.KindInternal, err, "could not verify password")
		}
		sess, err = p.start(ctx, acct)
		return err
	})
	return sess, err
}

// SignOut revokes the refresh token and ends the session. A token that is
// already revoked or expired is reported as unauthenticated.
func (p *Provider) SignOut(ctx context.Context, refreshToken string) error {
	claims, err := Parse(refreshToken, RefreshToken, p.opts.SigningKey, p.opts.Issuer)
	if err != nil {
		return apperr.Wrap(apperr.KindUnauthenticated, err, "invalid session")
	}
	if _, err := p.accounts.ActiveRefreshToken(ctx, refreshToken, p.now()); err != nil {
		return err
	}
	if err := p.accounts.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return err
	}
	p.emit(SessionEvent{UserID: claims.Subject, Email: claims.Email, State: SignedOut, At: p.now().UTC()})
	return nil
}

// Refresh rotates a refresh token into a new token pair.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := Parse(refreshToken, RefreshToken, p.opts.SigningKey, p.opts.Issuer)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.KindUnauthenticated, err, "invalid session")
	}
	accountID, err := p.accounts.ActiveRefreshToken(ctx, refreshToken, p.now())
	if err != nil {
		return Session{}, err
	}
	if err := p.accounts.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return Session{}, err
	}
	tokens, err := p.issue(ctx, accountID, claims.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: accountID, Email: claims.Email, Tokens: tokens}, nil
}

// OnSessionChange registers fn for every later transition. Listeners run
// synchronously in registration order. The returned func unregisters fn.
func (p *Provider) OnSessionChange(fn func(SessionEvent)) (cancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.listeners = append(p.listeners, listener{id: id, fn: fn})
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, l := range p.listeners {
			if l.id == id {
				p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}

// PublishTo returns a listener forwarding events to a queue.
func PublishTo(pub queue.Publisher) func(SessionEvent) {
	return func(evt SessionEvent) {
		msg, err := queue.NewMessage(queue.SessionChanged, queue.SessionEvent{
			UserID: evt.UserID,
			Email:  evt.Email,
			State:  string(evt.State),
			At:     evt.At,
		})
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			err = pub.Publish(ctx, msg)
		}
		if err != nil {
			log.Printf("session %s publish failed: %v", evt.State, err)
		}
	}
}

func (p *Provider) start(ctx context.Context, acct Account) (Session, error) {
	tokens, err := p.issue(ctx, acct.ID, acct.Email)
	if err != nil {
		return Session{}, err
	}
	p.emit(SessionEvent{UserID: acct.ID, Email: acct.Email, State: SignedIn, At: p.now().UTC()})
	return Session{UserID: acct.ID, Email: acct.Email, Name: acct.Name, Tokens: tokens}, nil
}

func (p *Provider) issue(ctx context.Context, accountID, email string) (TokenPair, error) {
	tokens, err := Issue(accountID, email, p.opts.Issuer, p.opts.SigningKey, p.opts.AccessTTL, p.opts.RefreshTTL, p.now())
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, err, "could not issue session")
	}
	if err := p.accounts.SaveRefreshToken(ctx, accountID, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		return TokenPair{}, err
	}
	return tokens, nil
}

func (p *Provider) emit(evt SessionEvent) {
	metrics.SessionEvents.WithLabelValues(string(evt.State)).Inc()
	p.mu.RLock()
	ls := append([]listener(nil), p.listeners...)
	p.mu.RUnlock()
	for _, l := range ls {
		l.fn(evt)
	}
}

func invalidCredentials() error {
	return apperr.New(apperr.KindInvalidCredentials, "Invalid email or password")
}
