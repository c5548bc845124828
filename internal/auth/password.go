package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = bcrypt.DefaultCost

// ErrInvalidCredentials signals a failed credential check. The wrapped
// message is chosen by the caller so that login and password-change failures
// can surface different texts without leaking which check failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword 对明文密码进行哈希处理
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password must not be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), defaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword 验证密码是否与存储的哈希值匹配
func VerifyPassword(hash, candidate string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("stored password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}

// VerifyPasswordOrFail compares the candidate against the stored hash and, on
// mismatch, fails with ErrInvalidCredentials carrying the provided message.
func VerifyPasswordOrFail(hash, candidate, message string) error {
	if err := VerifyPassword(hash, candidate); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, message)
	}
	return nil
}
