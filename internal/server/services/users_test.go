package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpopescu/autochecks/internal/common"
	"github.com/mpopescu/autochecks/internal/cryptox"
	"github.com/mpopescu/autochecks/internal/server/config"
	"github.com/mpopescu/autochecks/internal/server/models"
)

type fakeUsersRepo struct {
	created   []*models.User
	createErr error
	byEmail   map[string]*models.User
	byID      map[string]*models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u-1"
	u.CreatedAt = time.Now()
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

type fakeRefreshRepo struct {
	tokens map[string]*models.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	f.tokens[token] = &models.RefreshToken{Token: token, UserID: userID, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := f.tokens[token]; ok {
		return rt, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteForUser(ctx context.Context, userID string) error {
	for k, rt := range f.tokens {
		if rt.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: time.Hour,
	}
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := cryptox.HashPassword([]byte(password))
	require.NoError(t, err)
	return hash
}

func TestUserRegister(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := NewUserService(repo, newFakeRefreshRepo(), testConfig())

	user, err := svc.Register(context.Background(), "ana@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)

	require.Len(t, repo.created, 1)
	assert.NotEqual(t, "password123", repo.created[0].PasswordHash, "password is never stored in clear")

	ok, err := cryptox.VerifyPassword([]byte("password123"), repo.created[0].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserRegister_EmailTaken(t *testing.T) {
	repo := &fakeUsersRepo{createErr: common.ErrorEmailTaken}
	svc := NewUserService(repo, newFakeRefreshRepo(), testConfig())

	_, err := svc.Register(context.Background(), "ana@example.com", "password123")
	assert.ErrorIs(t, err, common.ErrorEmailTaken)
}

func TestUserLogin(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "ana@example.com", PasswordHash: hashOf(t, "password123")}
	repo := &fakeUsersRepo{byEmail: map[string]*models.User{"ana@example.com": user}}
	refresh := newFakeRefreshRepo()
	svc := NewUserService(repo, refresh, testConfig())

	got, pair, err := svc.Login(context.Background(), "ana@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Len(t, refresh.tokens, 1, "refresh token persisted")

	accountID, err := svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", accountID)
}

func TestUserLogin_WrongCredentialsIndistinguishable(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "ana@example.com", PasswordHash: hashOf(t, "password123")}
	repo := &fakeUsersRepo{byEmail: map[string]*models.User{"ana@example.com": user}}
	svc := NewUserService(repo, newFakeRefreshRepo(), testConfig())

	_, _, errWrongEmail := svc.Login(context.Background(), "ghost@example.com", "password123")
	_, _, errWrongPassword := svc.Login(context.Background(), "ana@example.com", "wrong-password")

	assert.ErrorIs(t, errWrongEmail, common.ErrorUnauthorized)
	assert.ErrorIs(t, errWrongPassword, common.ErrorUnauthorized)
	assert.Equal(t, errWrongEmail.Error(), errWrongPassword.Error())
}

func TestUserRefresh_RotatesToken(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "ana@example.com", PasswordHash: hashOf(t, "password123")}
	repo := &fakeUsersRepo{
		byEmail: map[string]*models.User{"ana@example.com": user},
		byID:    map[string]*models.User{"u-1": user},
	}
	refresh := newFakeRefreshRepo()
	svc := NewUserService(repo, refresh, testConfig())

	_, pair, err := svc.Login(context.Background(), "ana@example.com", "password123")
	require.NoError(t, err)

	_, next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The presented token was consumed: replaying it must fail.
	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserRefresh_ExpiredTokenConsumed(t *testing.T) {
	user := &models.User{ID: "u-1"}
	repo := &fakeUsersRepo{byID: map[string]*models.User{"u-1": user}}
	refresh := newFakeRefreshRepo()
	refresh.tokens["old"] = &models.RefreshToken{Token: "old", UserID: "u-1", ExpiresAt: time.Now().Add(-time.Minute)}
	svc := NewUserService(repo, refresh, testConfig())

	_, _, err := svc.Refresh(context.Background(), "old")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
	assert.Empty(t, refresh.tokens, "expired token is deleted even though refusal follows")
}

func TestUserRefresh_UnknownToken(t *testing.T) {
	svc := NewUserService(&fakeUsersRepo{}, newFakeRefreshRepo(), testConfig())

	_, _, err := svc.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserGetByID(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "ana@example.com"}
	repo := &fakeUsersRepo{byID: map[string]*models.User{"u-1": user}}
	svc := NewUserService(repo, newFakeRefreshRepo(), testConfig())

	got, err := svc.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)

	_, err = svc.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	svc := NewUserService(&fakeUsersRepo{}, newFakeRefreshRepo(), testConfig())
	_, err := svc.VerifyAccessToken("garbage")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrTokenExpired))
}
