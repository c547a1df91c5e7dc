package authinfra

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// 後台帳號數量極少，登入頻率低，預設 cost 已足夠。
const bcryptCost = bcrypt.DefaultCost

// BcryptHasher 以 bcrypt 驗證與產生密碼雜湊。
type BcryptHasher struct{}

// Compare 驗證明文密碼與既有雜湊是否相符。
func (BcryptHasher) Compare(hashed, plain string) bool {
	if hashed == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// Hash 產生新的密碼雜湊。
func (BcryptHasher) Hash(plain string) (string, error) {
	return HashPassword(plain)
}

// HashPassword 供啟動時 seed 管理者帳號使用。空密碼直接拒絕，
// 避免種出一個誰都登得進去的帳號。
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password must not be empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
