package auth

import (
	"context"
	"errors"
	"strings"

	authDomain "fx-alert-bot/internal/domain/auth"
)

// ErrInvalidCredentials 帳號不存在或密碼錯誤，對外不區分。
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository 存取使用者。
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (authDomain.User, error)
	FindByID(ctx context.Context, id string) (authDomain.User, error)
}

// PasswordHasher 驗證密碼。
type PasswordHasher interface {
	Compare(hashed, plain string) bool
}

// TokenIssuer 簽發 token。
type TokenIssuer interface {
	Issue(user authDomain.User) (string, error)
}

// LoginUseCase 驗證帳密並簽發 token。
type LoginUseCase struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewLoginUseCase 建立登入 use case。
func NewLoginUseCase(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *LoginUseCase {
	return &LoginUseCase{users: users, hasher: hasher, tokens: tokens}
}

// Login 驗證帳密。任何失敗都回 ErrInvalidCredentials，不洩漏細節。
func (u *LoginUseCase) Login(ctx context.Context, username, password string) (string, authDomain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", authDomain.User{}, ErrInvalidCredentials
	}

	user, err := u.users.FindByUsername(ctx, username)
	if err != nil {
		return "", authDomain.User{}, ErrInvalidCredentials
	}
	if !u.hasher.Compare(user.PasswordHash, password) {
		return "", authDomain.User{}, ErrInvalidCredentials
	}

	token, err := u.tokens.Issue(user)
	if err != nil {
		return "", authDomain.User{}, err
	}
	return token, user, nil
}
