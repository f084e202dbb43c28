package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/domain/timetable"
	"teacher_timetable/internal/domain/user"
)

// NewAccount contains information needed to register a user.
type NewAccount struct {
	Name       string `json:"name" validate:"notblank"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required,oneof=admin teacher"`
	TelegramID int64  `json:"telegramId"`
}

// AccountService backs the identity collaborator: signup, login and lookups.
type AccountService struct {
	users      user.Repository
	grids      timetable.Repository
	timetables *TimetableService
	policy     Authorizer
	logger     *logrus.Entry
	now        func() time.Time
}

func NewAccountService(users user.Repository, grids timetable.Repository, timetables *TimetableService, policy Authorizer, logger *logrus.Entry) *AccountService {
	return &AccountService{
		users:      users,
		grids:      grids,
		timetables: timetables,
		policy:     policy,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates the account and, for teachers, their empty timetable.
func (s *AccountService) Register(ctx context.Context, in NewAccount) (*user.User, error) {
	in.Email = cleanEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// Check if account already exists by email
	_, err := s.users.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, newError(KindDuplicateKey, "email already registered")
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if in.TelegramID != 0 {
		if _, err := s.users.GetByTelegramID(ctx, in.TelegramID); err == nil {
			return nil, newError(KindDuplicateKey, "telegram account already linked to another user")
		} else if !errors.Is(err, user.ErrNotFound) {
			return nil, fmt.Errorf("failed to check existing telegram link: %w", err)
		}
	}

	role := user.Role(in.Role)
	if role == user.RoleTeacher {
		if _, err := s.grids.Get(ctx, in.Email); err == nil {
			return nil, newError(KindDuplicateKey, "timetable already exists for "+in.Email)
		} else if !errors.Is(err, timetable.ErrGridNotFound) {
			return nil, fmt.Errorf("failed to check existing timetable: %w", err)
		}
	}

	newUser := &user.User{
		Email:      in.Email,
		Name:       in.Name,
		Role:       role,
		TelegramID: in.TelegramID,
		CreatedAt:  s.now(),
	}
	if err := newUser.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			return nil, wrapError(KindDuplicateKey, "email already registered", err)
		case errors.Is(err, user.ErrTelegramIDTaken):
			return nil, wrapError(KindDuplicateKey, "telegram account already linked to another user", err)
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}

	if role == user.RoleTeacher {
		if _, err := s.timetables.CreateDefault(ctx, newUser.Email); err != nil {
			// A teacher account never outlives a failed grid creation.
			if delErr := s.users.Delete(ctx, newUser.Email); delErr != nil {
				s.logger.WithError(delErr).WithField("email", newUser.Email).Error("Failed to roll back account after timetable error")
			}
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{"email": newUser.Email, "role": newUser.Role}).Info("Account registered")
	return newUser, nil
}

// Authenticate checks credentials and returns the matching account.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, cleanEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := u.CheckPassword(password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Lookup returns the account for email.
func (s *AccountService) Lookup(ctx context.Context, email string) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, cleanEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, wrapError(KindNotFound, "user not found", err)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// ListTeachers returns every teacher account ordered by email.
func (s *AccountService) ListTeachers(ctx context.Context, actor access.Actor) ([]*user.User, error) {
	if err := authorize(s.policy, actor, access.OpListTeachers); err != nil {
		return nil, err
	}
	teachers, err := s.users.ListByRole(ctx, user.RoleTeacher)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	return teachers, nil
}
