package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/trackmate-dev/trackmate-api/internal/models"
	appErrors "github.com/trackmate-dev/trackmate-api/pkg/errors"
)

type mockUserRepo struct {
	userByEmail      *models.User
	userByID         *models.User
	findByEmailErr   error
	findByIDErr      error
	emailExists      bool
	created          *models.User
	createErr        error
	updatedProfile   *models.User
	lastLoginUpdated bool
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.userByID == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByID, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emailExists, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "new-user"
	m.created = user
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	m.updatedProfile = user
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

type mockRegistry struct {
	entry *models.StudentRegistryEntry
	err   error
}

func (m *mockRegistry) FindByStudentAndEmail(ctx context.Context, studentID, email string) (*models.StudentRegistryEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.entry == nil {
		return nil, sql.ErrNoRows
	}
	return m.entry, nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:            "secret",
		Issuer:            "trackmate",
		AccessExpiration:  time.Minute * 30,
		RefreshExpiration: time.Hour * 168,
	}
}

func TestAuthServiceSignupSuccess(t *testing.T) {
	repo := &mockUserRepo{}
	registry := &mockRegistry{entry: &models.StudentRegistryEntry{StudentID: "S001", Email: "user@campus.edu"}}
	svc := NewAuthService(repo, registry, validator.New(), zap.NewNop(), testAuthConfig())

	user, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:     "  User@Campus.EDU ",
		Password:  "password123",
		StudentID: " S001 ",
		FullName:  "Test User",
	})
	require.NoError(t, err)
	assert.Equal(t, "user@campus.edu", user.Email)
	assert.Equal(t, "S001", user.StudentID)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.Active)
	require.NotNil(t, repo.created)
	assert.NotEqual(t, "password123", repo.created.PasswordHash)
}

func TestAuthServiceSignupNotInRegistry(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewAuthService(repo, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:     "user@campus.edu",
		Password:  "password123",
		StudentID: "S404",
		FullName:  "Test User",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestAuthServiceSignupDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{emailExists: true}
	registry := &mockRegistry{entry: &models.StudentRegistryEntry{}}
	svc := NewAuthService(repo, registry, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:     "user@campus.edu",
		Password:  "password123",
		StudentID: "S001",
		FullName:  "Test User",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceSignupShortPassword(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:     "user@campus.edu",
		Password:  "short",
		StudentID: "S001",
		FullName:  "Test User",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo := &mockUserRepo{userByEmail: &models.User{ID: "u1", Email: "user@campus.edu", PasswordHash: string(hash), Active: true, Role: models.RoleStudent}}
	svc := NewAuthService(repo, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@campus.edu", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, int64(1800), res.ExpiresIn)
	assert.True(t, repo.lastLoginUpdated)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo := &mockUserRepo{userByEmail: &models.User{ID: "u1", Email: "user@campus.edu", PasswordHash: string(hash), Active: true}}
	svc := NewAuthService(repo, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@campus.edu", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@campus.edu", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo := &mockUserRepo{userByEmail: &models.User{ID: "u1", Email: "user@campus.edu", PasswordHash: string(hash), Active: false}}
	svc := NewAuthService(repo, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@campus.edu", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefresh(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@campus.edu", Active: true, Role: models.RoleStudent}
	repo := &mockUserRepo{userByID: user}
	svc := NewAuthService(repo, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	refreshToken, err := svc.signToken(user, models.TokenTypeRefresh, time.Now().UTC(), time.Hour)
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: refreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "u1", res.User.ID)
}

func TestAuthServiceRefreshRejectsAccessToken(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@campus.edu", Active: true}
	repo := &mockUserRepo{userByID: user}
	svc := NewAuthService(repo, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	accessToken, err := svc.signToken(user, models.TokenTypeAccess, time.Now().UTC(), time.Hour)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: accessToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshExpired(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@campus.edu", Active: true}
	repo := &mockUserRepo{userByID: user}
	svc := NewAuthService(repo, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	expired, err := svc.signToken(user, models.TokenTypeRefresh, time.Now().UTC().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: expired})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenExpired.Code, appErrors.FromError(err).Code)
}

func TestValidateToken(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@campus.edu", Role: models.RoleAdmin}
	svc := NewAuthService(&mockUserRepo{}, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	token, err := svc.signToken(user, models.TokenTypeAccess, time.Now().UTC(), time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsRefreshToken(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@campus.edu"}
	svc := NewAuthService(&mockUserRepo{}, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	token, err := svc.signToken(user, models.TokenTypeRefresh, time.Now().UTC(), time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@campus.edu"}
	other := NewAuthService(&mockUserRepo{}, &mockRegistry{}, validator.New(), zap.NewNop(), AuthConfig{Secret: "other-secret", AccessExpiration: time.Hour, RefreshExpiration: time.Hour})
	token, err := other.signToken(user, models.TokenTypeAccess, time.Now().UTC(), time.Hour)
	require.NoError(t, err)

	svc := NewAuthService(&mockUserRepo{}, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenInvalid.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceUpdateProfile(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@campus.edu", FullName: "Old Name", Active: true}
	repo := &mockUserRepo{userByID: user}
	svc := NewAuthService(repo, &mockRegistry{}, validator.New(), zap.NewNop(), testAuthConfig())

	name := "New Name"
	phone := "555-0100"
	updated, err := svc.UpdateProfile(context.Background(), "u1", models.UpdateProfileRequest{FullName: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555-0100", *updated.Phone)
	require.NotNil(t, repo.updatedProfile)
}
