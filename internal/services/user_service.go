package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/AnshRaj112/leadcrm-backend/internal/repository"
	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
)

var (
	// Fields the pre-signup form may send when it completes a lead.
	leadUpdates = newAllowList("cpf", "name", "email", "password", "age")
	// Fields a logged-in user may change on their own profile.
	profileUpdates = newAllowList("name", "email", "password", "age")
)

// Profile is the validated, user-editable part of a User.
type Profile struct {
	CPF   string `json:"cpf" validate:"required"`
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Age   int    `json:"age" validate:"min=0"`
}

// SignupInput is the body of POST /users.
type SignupInput struct {
	Profile
	Password string `json:"password"`
}

type userPatch struct {
	CPF      *string `json:"cpf"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Age      *int    `json:"age"`
}

// UserService owns user records and their credentials.
type UserService struct {
	users repository.Records[models.User]
	cache SessionCache
}

func NewUserService(users repository.Records[models.User], cache SessionCache) *UserService {
	if cache == nil {
		cache = NoopSessionCache{}
	}
	return &UserService{users: users, cache: cache}
}

// CreateUser registers a lead. The password is stored as an argon2id hash.
func (s *UserService) CreateUser(ctx context.Context, in SignupInput) (*models.User, error) {
	profile := normalizeProfile(in.Profile)
	if err := utils.ValidateStruct(profile); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, nil, profile); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		CPF:      profile.CPF,
		Password: hashed,
		Name:     profile.Name,
		Email:    profile.Email,
		Age:      profile.Age,
		IsLead:   true,
		Tokens:   []models.Token{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.mapWriteErr(err)
	}
	return user, nil
}

// FindByCredentials returns the user with cpf when password matches its hash.
// Any mismatch is reported as ErrUnableToLogin.
func (s *UserService) FindByCredentials(ctx context.Context, cpf, password string) (*models.User, error) {
	user, err := s.users.FindOne(ctx, repository.Filter{"cpf": strings.TrimSpace(cpf)})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnableToLogin
	}
	if err != nil {
		return nil, fmt.Errorf("find user by cpf: %w", err)
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil || !ok {
		return nil, ErrUnableToLogin
	}
	return user, nil
}

// FindByCPF returns the user registered with cpf, or ErrNotFound.
func (s *UserService) FindByCPF(ctx context.Context, cpf string) (*models.User, error) {
	cpf = strings.TrimSpace(cpf)
	if cpf == "" {
		return nil, ErrNotFound
	}
	user, err := s.users.FindOne(ctx, repository.Filter{"cpf": cpf})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by cpf: %w", err)
	}
	return user, nil
}

// CPFStatus tells the pre-signup form whether a cpf is already registered.
type CPFStatus struct {
	OK     bool  `json:"ok"`
	IsLead *bool `json:"isLead,omitempty"`
}

// CheckCPF reports whether a user with cpf exists and, if so, whether it is
// still a lead.
func (s *UserService) CheckCPF(ctx context.Context, cpf string) (CPFStatus, error) {
	user, err := s.FindByCPF(ctx, cpf)
	if errors.Is(err, ErrNotFound) {
		return CPFStatus{}, nil
	}
	if err != nil {
		return CPFStatus{}, err
	}
	isLead := user.IsLead
	return CPFStatus{OK: true, IsLead: &isLead}, nil
}

// CompleteSignup applies the full signup form to the lead with id. The user
// stops being a lead.
func (s *UserService) CompleteSignup(ctx context.Context, id string, fields map[string]json.RawMessage) (*models.User, error) {
	if !leadUpdates.permits(fields) {
		return nil, ErrInvalidUpdates
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.apply(ctx, user, fields); err != nil {
		return nil, err
	}
	user.IsLead = false

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies fields to user. The whole request is rejected if any
// field is not part of the editable profile. The update is applied to the
// stored document, not to user, which may come from the session cache.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, fields map[string]json.RawMessage) (*models.User, error) {
	if !profileUpdates.permits(fields) {
		return nil, ErrInvalidUpdates
	}

	fresh, err := s.users.FindByID(ctx, user.ID.Hex())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.apply(ctx, fresh, fields); err != nil {
		return nil, err
	}
	if err := s.save(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// DeleteUser removes the account. Interaction records owned by the user are kept.
func (s *UserService) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	evictSessions(ctx, s.cache, user.ID.Hex())
	return user, nil
}

// apply decodes and validates a patch, then copies it onto user.
func (s *UserService) apply(ctx context.Context, user *models.User, fields map[string]json.RawMessage) error {
	var patch userPatch
	if err := decodeFields(fields, &patch); err != nil {
		return err
	}

	profile := Profile{CPF: user.CPF, Name: user.Name, Email: user.Email, Age: user.Age}
	if patch.CPF != nil {
		profile.CPF = *patch.CPF
	}
	if patch.Name != nil {
		profile.Name = *patch.Name
	}
	if patch.Email != nil {
		profile.Email = *patch.Email
	}
	if patch.Age != nil {
		profile.Age = *patch.Age
	}
	profile = normalizeProfile(profile)

	if err := utils.ValidateStruct(profile); err != nil {
		return err
	}
	if err := s.ensureUnique(ctx, user, profile); err != nil {
		return err
	}

	if patch.Password != nil {
		if err := utils.ValidatePassword(*patch.Password); err != nil {
			return err
		}
		hashed, err := utils.HashPassword(*patch.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.Password = hashed
	}

	user.CPF = profile.CPF
	user.Name = profile.Name
	user.Email = profile.Email
	user.Age = profile.Age
	return nil
}

// ensureUnique checks cpf and email against other users. self is nil on signup.
func (s *UserService) ensureUnique(ctx context.Context, self *models.User, p Profile) error {
	checks := []struct {
		field, value, message string
	}{
		{"cpf", p.CPF, "CPF is already registered"},
		{"email", p.Email, "Email is already registered"},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		other, err := s.users.FindOne(ctx, repository.Filter{c.field: c.value})
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("check %s: %w", c.field, err)
		}
		if self == nil || other.ID != self.ID {
			return &utils.ValidationError{Field: c.field, Message: c.message}
		}
	}
	return nil
}

func (s *UserService) save(ctx context.Context, user *models.User) error {
	if err := s.users.Save(ctx, user); err != nil {
		return s.mapWriteErr(err)
	}
	evictSessions(ctx, s.cache, user.ID.Hex())
	return nil
}

func (s *UserService) mapWriteErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return &utils.ValidationError{Message: "CPF or email is already registered"}
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("save user: %w", err)
	}
}

func normalizeProfile(p Profile) Profile {
	p.CPF = strings.TrimSpace(p.CPF)
	p.Name = strings.TrimSpace(p.Name)
	p.Email = utils.NormalizeEmail(p.Email)
	return p
}
