package identity

import (
	"context"
	"strings"

	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/identity"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"go.uber.org/zap"
)

// UserAPI is the operator-account part of the school API
type UserAPI interface {
	ListUsers(ctx context.Context) ([]identity.User, error)
	CreateUser(ctx context.Context, reg identity.Registration) (identity.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ErrSelfDelete rejects deleting the signed-in account
var ErrSelfDelete = shared.NewValidationError("CANNOT_DELETE_SELF", "You cannot delete your own account")

// UserService manages operator accounts
type UserService struct {
	api    UserAPI
	store  *state.Store
	logger *zap.Logger
}

// NewUserService creates a user service
func NewUserService(api UserAPI, store *state.Store, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = state.NewStore(logger)
	}
	return &UserService{api: api, store: store, logger: logger.Named("users")}
}

// List returns every operator account
func (s *UserService) List(ctx context.Context) ([]identity.User, error) {
	users, err := s.api.ListUsers(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return users, nil
}

// Create adds an operator account
func (s *UserService) Create(ctx context.Context, input RegisterInput) (identity.User, error) {
	reg, err := identity.NewRegistration(input.FirstName, input.LastName, input.Email, input.Password)
	if err != nil {
		return identity.User{}, err
	}
	user, err := s.api.CreateUser(ctx, reg)
	if err != nil {
		return identity.User{}, s.fail(ctx, err)
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	s.store.Notify(state.LevelSuccess, "User created")
	return user, nil
}

// Delete removes an operator account other than the signed-in one
func (s *UserService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return shared.NewValidationError("INVALID_USER_ID", "User ID is required")
	}
	if sess := s.store.Snapshot().Session; sess.Active() && sess.User.ID == id {
		return ErrSelfDelete
	}
	if err := s.api.DeleteUser(ctx, id); err != nil {
		return s.fail(ctx, err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	s.store.Notify(state.LevelSuccess, "User deleted")
	return nil
}

func (s *UserService) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Error("user request failed", zap.Error(err))
	s.store.NotifyError(err)
	return err
}
