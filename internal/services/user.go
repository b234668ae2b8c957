package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"luontovahdit/internal/models"
	"luontovahdit/internal/store"
	"luontovahdit/internal/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

type RegisterInput struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
}

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// Register 创建新用户，密码以 bcrypt 哈希保存
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.SessionUserView, error) {
	username := utils.SanitizeText(in.Username)
	displayName := utils.SanitizeText(in.DisplayName)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	err := validation.Errors{
		"username":    validation.Validate(username, validation.Required, validation.RuneLength(6, 20)),
		"displayname": validation.Validate(displayName, validation.Required, validation.RuneLength(6, 20)),
		"email":       validation.Validate(email, validation.Required, is.EmailFormat),
		"password":    validation.Validate(in.Password, validation.Required, validation.RuneLength(6, 20)),
	}.Filter()
	if err != nil {
		return nil, fieldErrors(err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := models.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: displayName,
		Email:       email,
		Password:    hash,
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	view := u.SessionView()
	return &view, nil
}

// Authenticate checks a username/password pair. Every failure looks the same to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.SessionUserView, error) {
	err := validation.Errors{
		"username": validation.Validate(username, validation.Required, validation.RuneLength(3, 20)),
		"password": validation.Validate(password, validation.Required, validation.RuneLength(3, 20)),
	}.Filter()
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.store.FindUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}
	if !utils.CheckPasswordHash(password, u.Password) {
		return nil, ErrInvalidCredentials
	}

	view := u.SessionView()
	return &view, nil
}

// Find loads the full user record, e.g. for the session middleware.
func (s *UserService) Find(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.FindUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("User")
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.UserView, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	u, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := u.View()
	return &view, nil
}

func (s *UserService) List(ctx context.Context) ([]models.UserView, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	views := make([]models.UserView, len(users))
	for i := range users {
		views[i] = users[i].View()
	}
	return views, nil
}
