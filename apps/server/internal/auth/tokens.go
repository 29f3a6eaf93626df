package auth

import (
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 72 * time.Hour

// tokenMinter 签发与校验 JWT。登出走 jti 吊销名单，
// 名单项随 token 过期一起被清掉。
type tokenMinter struct {
	secret []byte
	ttl    time.Duration

	mu        sync.Mutex
	revoked   map[string]time.Time // jti -> token expiry
	lastSweep time.Time
}

type tokenClaims struct {
	Username string `json:"name"`
	jwt.RegisteredClaims
}

func newTokenMinter(secret string, ttl time.Duration) *tokenMinter {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &tokenMinter{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}
}

func (m *tokenMinter) mint(account Account) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Username: account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(account.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *tokenMinter) verify(token string) (Account, string, bool) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Account{}, "", false
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok {
		return Account{}, "", false
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Account{}, "", false
	}

	m.mu.Lock()
	_, revoked := m.revoked[claims.ID]
	m.mu.Unlock()
	if revoked {
		return Account{}, "", false
	}
	return Account{ID: id, Username: claims.Username}, claims.ID, true
}

func (m *tokenMinter) revoke(token string) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.ID == "" {
		return
	}
	expiry := time.Now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	m.mu.Lock()
	m.revoked[claims.ID] = expiry
	m.sweepLocked()
	m.mu.Unlock()
}

func (m *tokenMinter) sweepLocked() {
	now := time.Now()
	if now.Sub(m.lastSweep) < time.Minute {
		return
	}
	m.lastSweep = now
	for jti, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, jti)
		}
	}
}
