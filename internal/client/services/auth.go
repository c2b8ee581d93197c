package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpopescu/autochecks/internal/client/client"
	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/client/sync"
	"github.com/mpopescu/autochecks/internal/logging"
)

const minPasswordLength = 8

// Hydrator establishes local state for a freshly signed-in account.
type Hydrator interface {
	HydrateForAccount(ctx context.Context, accountID, email string) (sync.Result, error)
}

// AuthService runs the sign-up and sign-in flows and keeps the account
// linkage in local settings.
type AuthService struct {
	store    *store.Store
	client   client.Client
	hydrator Hydrator
	logger   logging.Logger
}

func NewAuthService(s *store.Store, c client.Client, h Hydrator, logger logging.Logger) *AuthService {
	return &AuthService{store: s, client: c, hydrator: h, logger: logger}
}

func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address")
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// Register creates a new cloud account. It does not sign the device in.
func (s *AuthService) Register(ctx context.Context, email, password string) error {
	if err := validateCredentials(email, password); err != nil {
		return err
	}
	return s.client.Register(ctx, strings.TrimSpace(email), password)
}

// Login authenticates against the backend and hydrates local state for the
// account: an account with no cloud snapshot starts from a blank local state,
// never from the previous account's data.
func (s *AuthService) Login(ctx context.Context, email, password string) (sync.Result, error) {
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}

	session, err := s.client.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return "", err
	}

	res, err := s.hydrator.HydrateForAccount(ctx, session.AccountID, session.Email)
	if err != nil {
		return "", err
	}
	s.logger.Info(ctx, "signed in", "email", session.Email, "result", string(res))
	return res, nil
}

// Logout drops the session and detaches local settings from the account.
// Local vehicle and check data stays on the device.
func (s *AuthService) Logout(ctx context.Context) error {
	s.client.Logout()

	settings, err := s.store.Settings(ctx)
	if err != nil {
		return err
	}
	settings.CloudUserID = ""
	settings.CloudUserEmail = ""
	settings.CloudLastSyncedAt = 0
	return s.store.UpsertSettings(ctx, settings, store.OriginSync)
}
