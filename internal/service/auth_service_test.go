package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	"github.com/cordova-labs/booking-portal-api/pkg/config"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	created []*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.created = append(s.created, user)
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "booking-portal-test"}
}

func seedUser(t *testing.T, store *fakeUserStore, email, password string, role models.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "user-" + email,
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
		Active:       active,
	}
	store.byEmail[email] = user
	store.byID[user.ID] = user
	return user
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	store := newFakeUserStore()
	user := seedUser(t, store, "admin@portal.test", "hunter22", models.RoleAdmin, true)
	svc := NewAuthService(store, testJWTConfig(), nil, zap.NewNop())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "Admin@Portal.Test", Password: "hunter22",
	})

	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "admin@portal.test", "hunter22", models.RoleAdmin, true)
	svc := NewAuthService(store, testJWTConfig(), nil, zap.NewNop())

	_, errWrongPassword := svc.Login(context.Background(), models.LoginRequest{
		Email: "admin@portal.test", Password: "nope",
	})
	_, errUnknownEmail := svc.Login(context.Background(), models.LoginRequest{
		Email: "ghost@portal.test", Password: "nope",
	})

	require.Error(t, errWrongPassword)
	require.Error(t, errUnknownEmail)
	assert.Equal(t, appErrors.FromError(errWrongPassword).Code, appErrors.FromError(errUnknownEmail).Code)
}

func TestLogin_InactiveAccountRejected(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "new@portal.test", "hunter22", models.RoleSalesperson, false)
	svc := NewAuthService(store, testJWTConfig(), nil, zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "new@portal.test", Password: "hunter22",
	})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestValidateToken_RejectsForeignSignature(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "admin@portal.test", "hunter22", models.RoleAdmin, true)

	issuer := NewAuthService(store, testJWTConfig(), nil, zap.NewNop())
	resp, err := issuer.Login(context.Background(), models.LoginRequest{
		Email: "admin@portal.test", Password: "hunter22",
	})
	require.NoError(t, err)

	otherConfig := testJWTConfig()
	otherConfig.Secret = "different-secret"
	verifier := NewAuthService(store, otherConfig, nil, zap.NewNop())

	_, err = verifier.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}

func TestRegister_CreatesInactiveAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := NewAuthService(store, testJWTConfig(), nil, zap.NewNop())

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "Sales@Portal.Test", Name: " Priya ", Password: "secret99", Role: "salesperson",
	})

	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Equal(t, "sales@portal.test", user.Email)
	assert.Equal(t, "Priya", user.Name)
	assert.Equal(t, models.RoleSalesperson, user.Role)
	assert.NotEqual(t, "secret99", user.PasswordHash)
}

func TestRegister_DuplicateEmailRejected(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "sales@portal.test", "hunter22", models.RoleSalesperson, true)
	svc := NewAuthService(store, testJWTConfig(), nil, zap.NewNop())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "sales@portal.test", Name: "Priya", Password: "secret99", Role: "salesperson",
	})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestRegister_AdminRoleNotSelfServable(t *testing.T) {
	store := newFakeUserStore()
	svc := NewAuthService(store, testJWTConfig(), nil, zap.NewNop())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "boss@portal.test", Name: "Boss", Password: "secret99", Role: "admin",
	})

	require.Error(t, err)
	assert.Empty(t, store.created)
}
