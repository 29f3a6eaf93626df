package auth

import "errors"

// Account 对外暴露的账号信息。
type Account struct {
	ID       uint64
	Username string
}

// Service is the account/session contract consumed by gateway and HTTP handlers.
type Service interface {
	Register(username, password string) (Account, string, error)
	Login(username, password string) (Account, string, error)
	// Resolve 校验 token，返回账号；吊销过或过期的返回 false。
	Resolve(token string) (Account, bool)
	Logout(token string)
	Close() error
}

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
