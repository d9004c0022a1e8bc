package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
)

type userAdminStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListPending(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	Activate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type rpLinker interface {
	FindByEmail(ctx context.Context, email string) ([]models.ResourcePerson, error)
	LinkUser(ctx context.Context, rpID, userID string) error
}

// UserService covers the admin side of account management: reviewing pending
// registrations, activating them and linking approved RP accounts to their
// resource person records.
type UserService struct {
	users  userAdminStore
	rps    rpLinker
	logger *zap.Logger
}

func NewUserService(users userAdminStore, rps rpLinker, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, rps: rps, logger: logger}
}

// ListPending returns registrations awaiting an admin decision.
func (s *UserService) ListPending(ctx context.Context) ([]models.User, error) {
	return s.users.ListPending(ctx)
}

// ListByRole returns active accounts of one role.
func (s *UserService) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	return s.users.ListByRole(ctx, role)
}

// Approve activates a pending account. When the account is an RP and exactly
// one unlinked resource person record carries the same email, the two are
// linked automatically; any other match count leaves the link for the admin
// to establish by hand.
func (s *UserService) Approve(ctx context.Context, id string) (*models.User, error) {
	user, err := s.findPending(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.Activate(ctx, id); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	user.Active = true

	if user.Role == models.RoleRP {
		s.autoLinkRP(ctx, user)
	}

	s.logger.Info("user approved", zap.String("user_id", id), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *UserService) autoLinkRP(ctx context.Context, user *models.User) {
	matches, err := s.rps.FindByEmail(ctx, user.Email)
	if err != nil {
		s.logger.Warn("rp auto-link lookup failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}

	var unlinked []models.ResourcePerson
	for _, rp := range matches {
		if rp.UserID == nil {
			unlinked = append(unlinked, rp)
		}
	}
	if len(unlinked) != 1 {
		s.logger.Info("rp auto-link skipped",
			zap.String("user_id", user.ID),
			zap.Int("unlinked_matches", len(unlinked)))
		return
	}

	if err := s.rps.LinkUser(ctx, unlinked[0].ID, user.ID); err != nil {
		s.logger.Warn("rp auto-link failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	s.logger.Info("rp account linked",
		zap.String("user_id", user.ID),
		zap.String("rp_id", unlinked[0].ID))
}

// Reject deletes a pending registration outright.
func (s *UserService) Reject(ctx context.Context, id string) error {
	if _, err := s.findPending(ctx, id); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("registration rejected", zap.String("user_id", id))
	return nil
}

func (s *UserService) findPending(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, err
	}
	if user.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "account has already been approved")
	}
	return user, nil
}
