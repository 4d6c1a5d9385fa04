package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/internal/cart"
	"github.com/northwindlabs/storefront/internal/users"
	pkgauth "github.com/northwindlabs/storefront/pkg/auth"
	"github.com/northwindlabs/storefront/pkg/auth/session"
	"github.com/northwindlabs/storefront/pkg/config"
	"github.com/northwindlabs/storefront/pkg/db/models"
	"github.com/northwindlabs/storefront/pkg/enums"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"github.com/northwindlabs/storefront/pkg/logger"
	"github.com/northwindlabs/storefront/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "storefront-test",
	ExpirationMinutes: 15,
}

type stubUserRepo struct {
	byEmail    map[string]*models.User
	lastLogins map[uuid.UUID]time.Time
	created    []users.CreateUserDTO
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail:    map[string]*models.User{},
		lastLogins: map[uuid.UUID]time.Time{},
	}
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	s.created = append(s.created, dto)
	user := dto.ToModel()
	user.ID = uuid.New()
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogins[id] = at
	return nil
}

type stubSession struct {
	tokensByID   map[string]string
	revoked      []string
	rotateCalls  int
	counter      int
	failGenerate bool
}

func newStubSession() *stubSession {
	return &stubSession{tokensByID: map[string]string{}}
}

func (s *stubSession) Generate(ctx context.Context, accessID string) (string, error) {
	if s.failGenerate {
		return "", context.DeadlineExceeded
	}
	s.counter++
	token := "refresh-" + uuid.NewString()
	s.tokensByID[accessID] = token
	return token, nil
}

func (s *stubSession) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	s.rotateCalls++
	stored, ok := s.tokensByID[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokensByID, oldAccessID)
	newID := session.NewAccessID()
	token, err := s.Generate(ctx, newID)
	if err != nil {
		return "", "", err
	}
	return newID, token, nil
}

func (s *stubSession) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.tokensByID, accessID)
	return nil
}

type stubCarts struct {
	mergeCalls   []string
	discardCalls []string
	mergeErr     error
	cart         *cart.Cart
}

func (s *stubCarts) MergeGuestCart(ctx context.Context, userID uuid.UUID, guestToken string) (*cart.Cart, error) {
	s.mergeCalls = append(s.mergeCalls, guestToken)
	if s.mergeErr != nil {
		return nil, s.mergeErr
	}
	return s.cart, nil
}

func (s *stubCarts) DiscardGuest(ctx context.Context, guestToken string) error {
	s.discardCalls = append(s.discardCalls, guestToken)
	return nil
}

type authFixture struct {
	service Service
	users   *stubUserRepo
	session *stubSession
	carts   *stubCarts
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	userRepo := newStubUserRepo()
	sessions := newStubSession()
	carts := &stubCarts{cart: cart.BuildCart(nil)}

	svc, err := NewService(ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		Carts:          carts,
		JWTConfig:      testJWTConfig,
		Logger:         logger.New(logger.Options{ServiceName: "auth-test", Output: io.Discard}),
	})
	require.NoError(t, err)

	return &authFixture{service: svc, users: userRepo, session: sessions, carts: carts}
}

func seedUser(t *testing.T, fx *authFixture, email, password string) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Sam",
		LastName:     "Doe",
		Role:         enums.RoleCustomer,
		IsActive:     true,
	}
	fx.users.byEmail[email] = user
	return user
}

func TestLoginSuccessMergesGuestCart(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	user := seedUser(t, fx, "sam@example.com", "hunter2hunter2")

	resp, err := fx.service.Login(context.Background(), LoginRequest{
		Email:      "Sam@Example.com ",
		Password:   "hunter2hunter2",
		GuestToken: "device-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)
	require.NotNil(t, resp.Cart)
	assert.Equal(t, []string{"device-1"}, fx.carts.mergeCalls)
	assert.Contains(t, fx.users.lastLogins, user.ID)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.RoleCustomer, claims.Role)
}

func TestLoginWithoutGuestTokenSkipsMerge(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	seedUser(t, fx, "nomerge@example.com", "hunter2hunter2")

	resp, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "nomerge@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Cart)
	assert.Empty(t, fx.carts.mergeCalls)
}

func TestLoginMergeFailureDoesNotFailLogin(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	seedUser(t, fx, "retry@example.com", "hunter2hunter2")
	fx.carts.mergeErr = pkgerrors.New(pkgerrors.CodeDependency, "cart store unavailable")

	resp, err := fx.service.Login(context.Background(), LoginRequest{
		Email:      "retry@example.com",
		Password:   "hunter2hunter2",
		GuestToken: "device-2",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Cart)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	seedUser(t, fx, "known@example.com", "hunter2hunter2")

	for _, req := range []LoginRequest{
		{Email: "known@example.com", Password: "wrong-password"},
		{Email: "unknown@example.com", Password: "hunter2hunter2"},
		{Email: "", Password: "hunter2hunter2"},
	} {
		_, err := fx.service.Login(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	user := seedUser(t, fx, "gone@example.com", "hunter2hunter2")
	user.IsActive = false

	_, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "gone@example.com",
		Password: "hunter2hunter2",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestRegisterCreatesCustomer(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	dto, err := fx.service.Register(context.Background(), RegisterRequest{
		FirstName: "New",
		LastName:  "Shopper",
		Email:     " New.Shopper@Example.com ",
		Password:  "longenoughpass",
	})
	require.NoError(t, err)
	assert.Equal(t, "new.shopper@example.com", dto.Email)
	assert.Equal(t, enums.RoleCustomer, dto.Role)

	require.Len(t, fx.users.created, 1)
	assert.NotEqual(t, "longenoughpass", fx.users.created[0].PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	seedUser(t, fx, "taken@example.com", "hunter2hunter2")

	_, err := fx.service.Register(context.Background(), RegisterRequest{
		FirstName: "Dup",
		LastName:  "User",
		Email:     "taken@example.com",
		Password:  "longenoughpass",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterShortPassword(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	_, err := fx.service.Register(context.Background(), RegisterRequest{
		FirstName: "Short",
		LastName:  "Pass",
		Email:     "short@example.com",
		Password:  "tiny",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	seedUser(t, fx, "rotate@example.com", "hunter2hunter2")

	login, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "rotate@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	refreshed, err := fx.service.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old pair is spent.
	_, err = fx.service.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	_, err := fx.service.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLogoutRevokesAndDiscardsGuestCart(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	require.NoError(t, fx.service.Logout(context.Background(), "jti-1", "device-3"))
	assert.Equal(t, []string{"jti-1"}, fx.session.revoked)
	assert.Equal(t, []string{"device-3"}, fx.carts.discardCalls)

	require.NoError(t, fx.service.Logout(context.Background(), "jti-2", ""))
	assert.Len(t, fx.carts.discardCalls, 1)
}
