package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/northwindlabs/storefront/pkg/db/models"
	pkgerrors "github.com/northwindlabs/storefront/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes profile reads/writes for shoppers and account
// administration for staff.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	List(ctx context.Context, cursor string, limit int) (*UserPage, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) (*UserDTO, error)
}

// UpdateProfileInput carries partial profile changes. Nil fields are left
// untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

type service struct {
	repo *Repository
}

// NewService builds a users service on top of the repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	return &service{repo: repo}, nil
}

// GetProfile returns the caller's own account payload.
func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(user)
	return &dto, nil
}

// UpdateProfile applies partial changes to the caller's name and phone.
// Email and role are not shopper-editable.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := applyProfileUpdate(user, input); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProfile(ctx, userID, user.FirstName, user.LastName, user.Phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	dto := FromModel(updated)
	return &dto, nil
}

// List pages through all accounts for the admin surface.
func (s *service) List(ctx context.Context, cursor string, limit int) (*UserPage, error) {
	page, err := s.repo.List(ctx, cursor, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return page, nil
}

// SetActive enables or disables an account. Inactive accounts cannot sign in;
// existing sessions expire on their own.
func (s *service) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set user active")
	}
	return s.GetProfile(ctx, userID)
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func applyProfileUpdate(user *models.User, input UpdateProfileInput) error {
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be empty")
		}
		user.FirstName = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be empty")
		}
		user.LastName = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			user.Phone = nil
		} else {
			user.Phone = &phone
		}
	}
	return nil
}
