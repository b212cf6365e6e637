// Package identity signs operators in and out and keeps the persisted
// session in step with the application state.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/identity"
	"go.uber.org/zap"
)

// AuthAPI is the auth part of the school API
type AuthAPI interface {
	Login(ctx context.Context, creds identity.Credentials) (identity.User, error)
	Register(ctx context.Context, reg identity.Registration) (identity.User, error)
	UpdatePassword(ctx context.Context, pc identity.PasswordChange) error
}

// AuthService handles authentication operations
type AuthService struct {
	api      AuthAPI
	sessions identity.SessionStore
	store    *state.Store
	now      func() time.Time
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(api AuthAPI, sessions identity.SessionStore, store *state.Store, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = state.NewStore(logger)
	}
	return &AuthService{
		api:      api,
		sessions: sessions,
		store:    store,
		now:      time.Now,
		logger:   logger.Named("auth"),
	}
}

// Restore loads the persisted session into the state. A missing or
// unreadable session leaves the operator logged out.
func (s *AuthService) Restore(ctx context.Context) (identity.Session, error) {
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return identity.Session{}, ctx.Err()
		}
		s.logger.Warn("failed to restore session", zap.Error(err))
		sess = identity.LoggedOut()
	}
	s.store.Dispatch(state.SessionRestored{Session: sess})
	return sess, nil
}

// Login authenticates against the API and persists the session
func (s *AuthService) Login(ctx context.Context, input LoginInput) (identity.User, error) {
	creds, err := identity.NewCredentials(input.Email, input.Password)
	if err != nil {
		return identity.User{}, err
	}
	s.logger.Info("login attempt", zap.String("email", creds.Email))

	user, err := s.api.Login(ctx, creds)
	if err != nil {
		return identity.User{}, s.fail(ctx, "login failed", err)
	}
	if err := s.signIn(ctx, user); err != nil {
		return identity.User{}, err
	}
	s.store.Notify(state.LevelSuccess, "Welcome back, "+user.FullName())
	return user, nil
}

// Register creates an account and signs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (identity.User, error) {
	reg, err := identity.NewRegistration(input.FirstName, input.LastName, input.Email, input.Password)
	if err != nil {
		return identity.User{}, err
	}

	user, err := s.api.Register(ctx, reg)
	if err != nil {
		return identity.User{}, s.fail(ctx, "registration failed", err)
	}
	if err := s.signIn(ctx, user); err != nil {
		return identity.User{}, err
	}
	s.store.Notify(state.LevelSuccess, "Account created")
	return user, nil
}

// UpdatePassword changes the signed-in operator's password. The
// confirmation must match before anything is sent.
func (s *AuthService) UpdatePassword(ctx context.Context, input UpdatePasswordInput) error {
	sess := s.store.Snapshot().Session
	userID := ""
	if sess.Active() {
		userID = sess.User.ID
	}
	pc, err := identity.NewPasswordChange(userID, input.CurrentPassword, input.NewPassword, input.ConfirmPassword)
	if err != nil {
		return err
	}

	if err := s.api.UpdatePassword(ctx, pc); err != nil {
		return s.fail(ctx, "password update failed", err)
	}
	s.logger.Info("password updated", zap.String("user_id", userID))
	s.store.Notify(state.LevelSuccess, "Password updated successfully")
	return nil
}

// Logout clears the persisted session and every cached view
func (s *AuthService) Logout(ctx context.Context) error {
	var errs []error
	if err := s.sessions.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear session", zap.Error(err))
		errs = append(errs, err)
	}
	s.store.Dispatch(state.LoggedOut{})
	return errors.Join(errs...)
}

// Current returns the session held in the state
func (s *AuthService) Current() identity.Session {
	return s.store.Snapshot().Session
}

func (s *AuthService) signIn(ctx context.Context, user identity.User) error {
	at := s.now()
	if err := s.sessions.Save(ctx, identity.NewSession(user, at)); err != nil {
		s.logger.Error("failed to persist session", zap.Error(err))
		return err
	}
	s.store.Dispatch(state.LoggedIn{User: user, At: at})
	s.logger.Info("signed in", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) fail(ctx context.Context, msg string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Warn(msg, zap.Error(err))
	s.store.NotifyError(err)
	return err
}
