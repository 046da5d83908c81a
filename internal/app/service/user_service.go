package service

import (
	"context"
	"fmt"
	"strings"

	"citylog/internal/common"
	"citylog/internal/domain/model"
	"citylog/internal/domain/repository"

	"github.com/google/uuid"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// UpdateProfileRequest is the explicit allow-list of self-service patchable
// fields. Password changes go through the dedicated password flow; the
// handler rejects any attempt to smuggle one in here.
type UpdateProfileRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		req.FirstName = strings.TrimSpace(req.FirstName)
		if err := validateName("First name", req.FirstName); err != nil {
			return nil, err
		}
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		req.LastName = strings.TrimSpace(req.LastName)
		if err := validateName("Last name", req.LastName); err != nil {
			return nil, err
		}
		user.LastName = req.LastName
	}
	if req.Email != "" {
		req.Email = normalizeEmail(req.Email)
		if err := validateEmail(req.Email); err != nil {
			return nil, err
		}
		user.Email = req.Email
	}
	if req.PhoneNumber != "" {
		if err := validatePhoneNumber(req.PhoneNumber); err != nil {
			return nil, err
		}
		user.PhoneNumber = req.PhoneNumber
	}

	// The password hash is carried through untouched: profile updates never
	// re-hash it.
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == common.ErrNotFound {
			return nil, common.NewError(common.ErrNotFound, "No user found with that ID")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	if role == "" {
		return nil, common.NewError(common.ErrBadRequest, "Role is required")
	}
	role = model.Role(strings.ToUpper(string(role)))
	if !model.ValidRole(role) {
		return nil, common.NewError(common.ErrValidation,
			"Invalid role! Please choose one of GUEST, USER, ADMIN")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.NewError(common.ErrBadRequest, fmt.Sprintf("Invalid id: %s", id))
	}
	return nil
}
