// Package auth はメールアドレスとパスワードによる認証と、セッショントークンの発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/mpfit/internal/model"
	"github.com/hitoshi/mpfit/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int // パスワードハッシュのコスト。範囲外の場合はbcrypt.DefaultCost
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, config ServiceConfig) *Service {
	if config.BcryptCost < bcrypt.MinCost || config.BcryptCost > bcrypt.MaxCost {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo: userRepo,
		config:   config,
	}
}

// Register はユーザーを登録する。
// 登録済みのメールアドレスの場合はmodel.ErrDuplicateEmailを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = model.NormalizeEmail(email)
	switch {
	case name == "":
		return nil, model.NewValidationError("name")
	case email == "":
		return nil, model.NewValidationError("email")
	case !strings.Contains(email, "@"):
		return nil, model.NewInvalidFieldError("email")
	case password == "":
		return nil, model.NewValidationError("password")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		return nil, model.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, model.NewInvalidFieldError("password")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 同時登録はリポジトリの一意制約でErrDuplicateEmailになる
	user, err := s.userRepo.Create(ctx, name, email, string(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// Login はメールアドレスとパスワードを検証する。
// 一致しない場合はユーザーの有無にかかわらずmodel.ErrInvalidCredentialsを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, model.NewValidationError("email")
	}
	if password == "" {
		return nil, model.NewValidationError("password")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return user, nil
}

// CurrentUser はユーザーIDからユーザーを取得する。
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.ErrNotFound
	}
	return user, nil
}

// SetAdmin はメールアドレスで指定したユーザーの管理者権限を付与または剥奪する。
// 該当ユーザーがいない場合はmodel.ErrNotFoundを返す。
func (s *Service) SetAdmin(ctx context.Context, email string, admin bool) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, model.NewValidationError("email")
	}
	user, err := s.userRepo.SetAdmin(ctx, email, admin)
	if err != nil {
		return nil, fmt.Errorf("failed to update admin flag: %w", err)
	}
	if user == nil {
		return nil, model.ErrNotFound
	}

	slog.Info("admin flag updated", slog.Int64("user_id", user.ID), slog.Bool("admin", admin))
	return user, nil
}
