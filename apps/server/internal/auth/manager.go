package auth

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{2,31}$`)

// accountStore 账号存储后端：内存、sqlite、postgres 三选一。
// 用户名查找用小写规范形，创建时由后端保证唯一。
type accountStore interface {
	create(username string, passwordHash []byte) (Account, error)
	byUsername(username string) (Account, []byte, error)
	close() error
}

// manager 通用的账号服务：口令校验交给 bcrypt，
// 会话交给 JWT，存储交给可替换的后端。
type manager struct {
	store  accountStore
	minter *tokenMinter
}

func newManager(store accountStore, minter *tokenMinter) *manager {
	return &manager{store: store, minter: minter}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(strings.TrimSpace(username)) {
		return ErrInvalidUsername
	}
	return nil
}

func validatePassword(password string) error {
	// bcrypt 对超过 72 字节的输入直接报错。
	if len(password) < 6 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

func (m *manager) Register(username, password string) (Account, string, error) {
	if err := validateUsername(username); err != nil {
		return Account{}, "", err
	}
	if err := validatePassword(password); err != nil {
		return Account{}, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, "", err
	}

	account, err := m.store.create(strings.TrimSpace(username), hash)
	if err != nil {
		return Account{}, "", err
	}
	token, err := m.minter.mint(account)
	if err != nil {
		return Account{}, "", err
	}
	return account, token, nil
}

func (m *manager) Login(username, password string) (Account, string, error) {
	account, hash, err := m.store.byUsername(username)
	if err != nil {
		return Account{}, "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return Account{}, "", ErrInvalidCredentials
	}
	token, err := m.minter.mint(account)
	if err != nil {
		return Account{}, "", err
	}
	return account, token, nil
}

func (m *manager) Resolve(token string) (Account, bool) {
	account, _, ok := m.minter.verify(token)
	return account, ok
}

func (m *manager) Logout(token string) {
	m.minter.revoke(token)
}

func (m *manager) Close() error {
	return m.store.close()
}
