package auth

import "time"

// Role 使用者角色。
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User 後台帳號。PasswordHash 為 bcrypt 雜湊，永不以明文出現。
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin 是否為管理者。
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
