package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	authDomain "github.com/KiritoEM/safeo-api/internal/auth/domain"
	authService "github.com/KiritoEM/safeo-api/internal/auth/service"
	"github.com/KiritoEM/safeo-api/internal/cache"
	"github.com/KiritoEM/safeo-api/internal/config"
	cryptoDomain "github.com/KiritoEM/safeo-api/internal/crypto/domain"
	cryptoService "github.com/KiritoEM/safeo-api/internal/crypto/service"
	otpService "github.com/KiritoEM/safeo-api/internal/otp/service"
	userDomain "github.com/KiritoEM/safeo-api/internal/user/domain"
)

// memoryUserRepository is an in-memory UserRepository.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userDomain.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[uuid.UUID]*userDomain.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return userDomain.ErrUserAlreadyExists
		}
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, userDomain.ErrUserNotFound
}

func (r *memoryUserRepository) GetByRefreshToken(_ context.Context, refreshToken string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == refreshToken {
			found := *u
			return &found, nil
		}
	}
	return nil, userDomain.ErrUserNotFound
}

func (r *memoryUserRepository) UpdateRefreshToken(_ context.Context, id uuid.UUID, refreshToken *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return userDomain.ErrUserNotFound
	}
	u.RefreshToken = refreshToken
	return nil
}

func (r *memoryUserRepository) get(id uuid.UUID) *userDomain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	found := *u
	return &found
}

func (r *memoryUserRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// memoryActivityRepository is an in-memory ActivityLogRepository.
type memoryActivityRepository struct {
	mu      sync.Mutex
	entries []*authDomain.ActivityLog
	err     error
}

func (r *memoryActivityRepository) Create(_ context.Context, entry *authDomain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryActivityRepository) ListByUser(
	_ context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*authDomain.ActivityLog, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	if offset >= len(out) {
		return []*authDomain.ActivityLog{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryActivityRepository) actions() []authDomain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]authDomain.Action, 0, len(r.entries))
	for _, e := range r.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// capturingNotifier records the codes it is asked to send.
type capturingNotifier struct {
	mu    sync.Mutex
	codes map[string][]string
	names map[string]string
	err   error
}

func newCapturingNotifier() *capturingNotifier {
	return &capturingNotifier{codes: make(map[string][]string), names: make(map[string]string)}
}

func (n *capturingNotifier) SendLoginOTP(_ context.Context, to, code string) error {
	return n.capture(to, "", code)
}

func (n *capturingNotifier) SendSignupOTP(_ context.Context, to, name, code string) error {
	return n.capture(to, name, code)
}

func (n *capturingNotifier) capture(to, name, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.codes[to] = append(n.codes[to], code)
	if name != "" {
		n.names[to] = name
	}
	return nil
}

func (n *capturingNotifier) last(t *testing.T, to string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	codes := n.codes[to]
	require.NotEmpty(t, codes, "no code sent to %s", to)
	return codes[len(codes)-1]
}

func (n *capturingNotifier) sent(to string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.codes[to])
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	uc           AuthUseCase
	users        *memoryUserRepository
	activity     *memoryActivityRepository
	notifier     *capturingNotifier
	clock        *testClock
	hasher       authService.PasswordHasher
	issuer       *authService.JWTIssuer
	keyManager   *cryptoService.KeyManagerService
	otp          *otpService.OTPService
	loginBroker  *authService.VerificationBroker[authDomain.PendingLogin]
	signupBroker *authService.VerificationBroker[authDomain.PendingSignup]
}

type harnessOption func(*Dependencies)

func withoutMasterKey() harnessOption {
	return func(d *Dependencies) {
		d.KeyManager = cryptoService.NewKeyManager(cryptoService.NewAEADManager(), nil)
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	mc := cache.NewMemoryCacheWithClock(clock.Now)
	tokens := authService.NewTokenGenerator()

	issuer, err := authService.NewJWTIssuer(authService.JWTConfig{
		Secret:          "test-secret",
		Issuer:          "safeo-api",
		AccessTokenTTL:  24 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	key := make([]byte, cryptoDomain.KeySize)
	_, err = rand.Read(key)
	require.NoError(t, err)
	masterKey, err := cryptoDomain.NewMasterKey("test", key)
	require.NoError(t, err)

	h := &harness{
		users:        newMemoryUserRepository(),
		activity:     &memoryActivityRepository{},
		notifier:     newCapturingNotifier(),
		clock:        clock,
		hasher:       authService.NewPasswordHasher(),
		issuer:       issuer,
		keyManager:   cryptoService.NewKeyManager(cryptoService.NewAEADManager(), masterKey),
		otp:          otpService.NewOTPService(mc, otpService.NewDigitsGenerator()),
		loginBroker:  authService.NewVerificationBroker[authDomain.PendingLogin](mc, tokens, authDomain.FlowLogin, 30*time.Minute),
		signupBroker: authService.NewVerificationBroker[authDomain.PendingSignup](mc, tokens, authDomain.FlowSignup, 30*time.Minute),
	}

	deps := Dependencies{
		Config:         &config.Config{OTPLength: 6, OTPTTL: 5 * time.Minute},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		UserRepo:       h.users,
		ActivityRepo:   h.activity,
		OTPService:     h.otp,
		Notifier:       h.notifier,
		LoginBroker:    h.loginBroker,
		SignupBroker:   h.signupBroker,
		PasswordHasher: h.hasher,
		TokenIssuer:    issuer,
		KeyManager:     h.keyManager,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	h.uc = NewAuthUseCase(deps)
	return h
}

// seedUser stores a password account and returns it.
func (h *harness) seedUser(t *testing.T, email, password string) *userDomain.User {
	t.Helper()
	hash, err := h.hasher.Hash(password)
	require.NoError(t, err)

	user := &userDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		FullName:     "Test User",
		Email:        email,
		Password:     hash,
		StorageLimit: userDomain.DefaultStorageLimit,
		IsActive:     true,
	}
	require.NoError(t, h.users.Create(context.Background(), user))
	return user
}

// wrongCode returns a well-formed code that differs from code.
func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

var errBoom = errors.New("boom")
