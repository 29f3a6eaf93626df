package auth

import (
	"fmt"
	"strings"
	"time"

	"mahjong-lite/apps/server/internal/config"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

// New 按配置选账号后端，JWT 密钥为空时拒绝启动持久化模式。
func New(authConf config.AuthConf, jwtConf config.JwtConf) (Service, error) {
	mode := strings.ToLower(strings.TrimSpace(authConf.Mode))
	if mode == "" {
		mode = ModeMemory
	}
	secret := jwtConf.Secret
	if secret == "" {
		if mode != ModeMemory {
			return nil, fmt.Errorf("jwt secret required for auth mode %q", mode)
		}
		// 内存模式下随便生成也行，进程重启本来就全丢。
		secret = fmt.Sprintf("ephemeral-%d", time.Now().UnixNano())
	}
	minter := newTokenMinter(secret, time.Duration(jwtConf.ExpireHours)*time.Hour)

	var (
		store accountStore
		err   error
	)
	switch mode {
	case ModeMemory, "mem":
		store = newMemoryStore()
	case ModeSQLite:
		store, err = newSQLiteStore(authConf.SQLitePath)
	case ModePostgres, "postgresql", "db":
		store, err = newPostgresStore(authConf.PostgresDSN)
	default:
		return nil, fmt.Errorf("invalid auth mode %q (supported: %s, %s, %s)",
			mode, ModeMemory, ModeSQLite, ModePostgres)
	}
	if err != nil {
		return nil, err
	}
	return newManager(store, minter), nil
}
