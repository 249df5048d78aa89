package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Provider-style error strings, matching what the adapter's lookup table
// expects from a real provider.
var (
	errInvalidLoginCredentials = errors.New("invalid login credentials")
	errUserAlreadyRegistered   = errors.New("user already registered")
	errEmailNotConfirmed       = errors.New("email not confirmed")
	errRefreshTokenNotFound    = errors.New("refresh token not found")
	errSessionNotFound         = errors.New("session not found")
	errUserNotFound            = errors.New("user not found")
	errTokenExpired            = errors.New("token has expired")
)

type memoryUser struct {
	id        string
	email     string
	name      string
	hash      []byte
	verified  bool
	createdAt time.Time
	updatedAt time.Time
}

type memorySession struct {
	id           string
	email        string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// MemoryProvider is a complete in-process Provider for tests and local
// development: bcrypt password hashing, opaque rotating tokens, and optional
// email-verification gating.
type MemoryProvider struct {
	mu                 sync.Mutex
	users              map[string]*memoryUser
	sessions           map[string]*memorySession // by access token
	refreshIndex       map[string]string         // refresh token -> access token
	verificationTokens map[string]string         // token -> email
	resetRequests      []string

	requireVerification bool
	tokenTTL            time.Duration
	bcryptCost          int
}

// MemoryProviderOption configures a MemoryProvider.
type MemoryProviderOption func(*MemoryProvider)

// WithEmailVerification gates sign-in and signup sessions on a verified
// address, mirroring verification-required provider projects.
func WithEmailVerification() MemoryProviderOption {
	return func(p *MemoryProvider) { p.requireVerification = true }
}

// WithTokenTTL sets the issued access token lifetime (default one hour).
func WithTokenTTL(ttl time.Duration) MemoryProviderOption {
	return func(p *MemoryProvider) {
		if ttl > 0 {
			p.tokenTTL = ttl
		}
	}
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider(opts ...MemoryProviderOption) *MemoryProvider {
	p := &MemoryProvider{
		users:              make(map[string]*memoryUser),
		sessions:           make(map[string]*memorySession),
		refreshIndex:       make(map[string]string),
		verificationTokens: make(map[string]string),
		tokenTTL:           time.Hour,
		bcryptCost:         bcrypt.MinCost, // fast hashing; this provider never guards real accounts
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SeedUser registers an account directly, bypassing the signup flow.
func (p *MemoryProvider) SeedUser(email, password, name string, verified bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return fmt.Errorf("identity: seed user: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.users[email] = &memoryUser{
		id:        uuid.NewString(),
		email:     email,
		name:      name,
		hash:      hash,
		verified:  verified,
		createdAt: now,
		updatedAt: now,
	}
	return nil
}

func (p *MemoryProvider) SignIn(ctx context.Context, email, password string) (*Payload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[email]
	if !ok {
		return nil, errInvalidLoginCredentials
	}
	if bcrypt.CompareHashAndPassword(user.hash, []byte(password)) != nil {
		return nil, errInvalidLoginCredentials
	}
	if p.requireVerification && !user.verified {
		return nil, errEmailNotConfirmed
	}

	session := p.createSessionLocked(user)
	return &Payload{User: user.payload(), Session: session}, nil
}

func (p *MemoryProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Payload, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.users[email]; exists {
		return nil, errUserAlreadyRegistered
	}

	name, _ := metadata["name"].(string)
	now := time.Now()
	user := &memoryUser{
		id:        uuid.NewString(),
		email:     email,
		name:      name,
		hash:      hash,
		verified:  !p.requireVerification,
		createdAt: now,
		updatedAt: now,
	}
	p.users[email] = user

	if p.requireVerification {
		p.verificationTokens[randomToken()] = email
		return &Payload{User: user.payload()}, nil
	}

	session := p.createSessionLocked(user)
	return &Payload{User: user.payload(), Session: session}, nil
}

func (p *MemoryProvider) SignOut(ctx context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, ok := p.sessions[accessToken]
	if ok {
		delete(p.refreshIndex, session.refreshToken)
		delete(p.sessions, accessToken)
	}
	return nil
}

func (p *MemoryProvider) GetSession(ctx context.Context, accessToken string) (*Payload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, ok := p.sessions[accessToken]
	if !ok {
		return nil, errSessionNotFound
	}
	if time.Now().After(session.expiresAt) {
		return nil, errTokenExpired
	}
	user, ok := p.users[session.email]
	if !ok {
		return nil, errUserNotFound
	}
	return &Payload{User: user.payload(), Session: session.payload()}, nil
}

func (p *MemoryProvider) RefreshSession(ctx context.Context, refreshToken string) (*Payload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	accessToken, ok := p.refreshIndex[refreshToken]
	if !ok {
		return nil, errRefreshTokenNotFound
	}
	old := p.sessions[accessToken]
	delete(p.sessions, accessToken)
	delete(p.refreshIndex, refreshToken)

	user, ok := p.users[old.email]
	if !ok {
		return nil, errUserNotFound
	}
	session := p.createSessionLocked(user)
	return &Payload{User: user.payload(), Session: session}, nil
}

func (p *MemoryProvider) UpdateUser(ctx context.Context, accessToken string, update UserUpdate) (*Payload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, ok := p.sessions[accessToken]
	if !ok {
		return nil, errSessionNotFound
	}
	user, ok := p.users[session.email]
	if !ok {
		return nil, errUserNotFound
	}

	if update.Name != nil {
		user.name = *update.Name
	}
	if update.Email != nil && *update.Email != user.email {
		if _, exists := p.users[*update.Email]; exists {
			return nil, errUserAlreadyRegistered
		}
		delete(p.users, user.email)
		user.email = *update.Email
		session.email = *update.Email
		p.users[user.email] = user
	}
	if update.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), p.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.hash = hash
	}
	user.updatedAt = time.Now()

	return &Payload{User: user.payload(), Session: session.payload()}, nil
}

func (p *MemoryProvider) ResetPasswordForEmail(ctx context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Real providers do not reveal account existence here; neither do we.
	p.resetRequests = append(p.resetRequests, email)
	return nil
}

func (p *MemoryProvider) VerifyEmail(ctx context.Context, token string) (*Payload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.verificationTokens[token]
	if !ok {
		return nil, errTokenExpired
	}
	delete(p.verificationTokens, token)

	user, ok := p.users[email]
	if !ok {
		return nil, errUserNotFound
	}
	user.verified = true
	user.updatedAt = time.Now()
	return &Payload{User: user.payload()}, nil
}

// VerificationTokenFor exposes the pending verification token for tests.
func (p *MemoryProvider) VerificationTokenFor(email string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for token, e := range p.verificationTokens {
		if e == email {
			return token, true
		}
	}
	return "", false
}

// ResetRequests exposes recorded password reset requests for tests.
func (p *MemoryProvider) ResetRequests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.resetRequests))
	copy(out, p.resetRequests)
	return out
}

// SessionCount reports live provider-side sessions, useful for asserting
// single-flight refresh behavior.
func (p *MemoryProvider) SessionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

func (p *MemoryProvider) createSessionLocked(user *memoryUser) *ProviderSession {
	session := &memorySession{
		id:           uuid.NewString(),
		email:        user.email,
		accessToken:  randomToken(),
		refreshToken: randomToken(),
		expiresAt:    time.Now().Add(p.tokenTTL),
	}
	p.sessions[session.accessToken] = session
	p.refreshIndex[session.refreshToken] = session.accessToken

	return session.payload()
}

func (u *memoryUser) payload() *ProviderUser {
	return &ProviderUser{
		ID:            u.id,
		Email:         u.email,
		Name:          u.name,
		EmailVerified: u.verified,
		CreatedAt:     u.createdAt,
		UpdatedAt:     u.updatedAt,
	}
}

func (s *memorySession) payload() *ProviderSession {
	return &ProviderSession{
		ID:           s.id,
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		ExpiresIn:    int64(time.Until(s.expiresAt) / time.Second),
	}
}

func randomToken() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("identity: random token: %v", err))
	}
	return hex.EncodeToString(buf)
}
