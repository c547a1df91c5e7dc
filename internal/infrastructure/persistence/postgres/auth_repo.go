package postgres

import (
	"context"
	"database/sql"

	authDomain "fx-alert-bot/internal/domain/auth"
)

// AuthRepo 提供後台帳號的存取。
type AuthRepo struct {
	db *sql.DB
}

// NewAuthRepo 建立 AuthRepo。
func NewAuthRepo(db *sql.DB) *AuthRepo {
	return &AuthRepo{db: db}
}

// FindByUsername 依帳號名稱查詢使用者。
func (r *AuthRepo) FindByUsername(ctx context.Context, username string) (authDomain.User, error) {
	const q = `
SELECT id, username, password_hash, role, created_at
FROM users
WHERE username = $1
LIMIT 1;
`
	var u authDomain.User
	var role string
	if err := r.db.QueryRowContext(ctx, q, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return authDomain.User{}, err
	}
	u.Role = authDomain.Role(role)
	return u, nil
}

// FindByID 依 ID 查詢使用者。
func (r *AuthRepo) FindByID(ctx context.Context, id string) (authDomain.User, error) {
	const q = `
SELECT id, username, password_hash, role, created_at
FROM users
WHERE id = $1
LIMIT 1;
`
	var u authDomain.User
	var role string
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return authDomain.User{}, err
	}
	u.Role = authDomain.Role(role)
	return u, nil
}

// EnsureAdmin 建立預設管理者帳號；已存在時不動作。
func (r *AuthRepo) EnsureAdmin(ctx context.Context, username, passwordHash string) error {
	const q = `
INSERT INTO users (username, password_hash, role)
VALUES ($1, $2, 'admin')
ON CONFLICT (username) DO NOTHING;
`
	_, err := r.db.ExecContext(ctx, q, username, passwordHash)
	return err
}
