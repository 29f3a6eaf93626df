package config

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"mahjong-lite/internal/logx"
)

// ServerConfig 进程级配置单例，Load 之后只读
//（日志级别例外，支持配置文件热更）。
var (
	ServerConfig  ServerConfiguration
	serverConfigM sync.RWMutex
)

type ServerConfiguration struct {
	AppName    string `mapstructure:"appName"`
	HTTPPort   int    `mapstructure:"httpPort"`
	MetricPort int    `mapstructure:"metricPort"`

	LogConf     `mapstructure:"log"`
	JwtConf     `mapstructure:"jwt"`
	AuthConf    `mapstructure:"auth"`
	HistoryConf `mapstructure:"history"`
	StatsConf   `mapstructure:"stats"`
	GameConf    `mapstructure:"game"`
	TimerConf   `mapstructure:"timers"`
	AIConf      `mapstructure:"ai"`
	RoomConf    `mapstructure:"room"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
}

type JwtConf struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expireHours"`
}

type AuthConf struct {
	Mode        string `mapstructure:"mode"` // memory | sqlite | postgres
	SQLitePath  string `mapstructure:"sqlitePath"`
	PostgresDSN string `mapstructure:"postgresDsn"`
}

type HistoryConf struct {
	Mode        string `mapstructure:"mode"` // memory | sqlite | postgres
	SQLitePath  string `mapstructure:"sqlitePath"`
	PostgresDSN string `mapstructure:"postgresDsn"`
	KeepRecent  int    `mapstructure:"keepRecent"`
}

type StatsConf struct {
	Mode       string `mapstructure:"mode"` // memory | sqlite
	SQLitePath string `mapstructure:"sqlitePath"`
}

type GameConf struct {
	Players       int `mapstructure:"players"`
	CopiesPerKind int `mapstructure:"copiesPerKind"`
	TotalRounds   int `mapstructure:"totalRounds"` // 0 => players
}

// TimerConf 各具名倒计时的秒数。
type TimerConf struct {
	TurnSeconds            int `mapstructure:"turnSeconds"`
	ClaimSeconds           int `mapstructure:"claimSeconds"`
	NextRoundSeconds       int `mapstructure:"nextRoundSeconds"`
	RematchSeconds         int `mapstructure:"rematchSeconds"`
	RoundCapSeconds        int `mapstructure:"roundCapSeconds"`
	EmptyRoomActiveSeconds int `mapstructure:"emptyRoomActiveSeconds"`
	EmptyRoomEndedSeconds  int `mapstructure:"emptyRoomEndedSeconds"`
}

type AIConf struct {
	ThinkMinMs   int    `mapstructure:"thinkMinMs"`
	ThinkMaxMs   int    `mapstructure:"thinkMaxMs"`
	PersonasFile string `mapstructure:"personasFile"`
}

type RoomConf struct {
	MaxMessageLog  int `mapstructure:"maxMessageLog"`
	NameMaxLen     int `mapstructure:"nameMaxLen"`
	PasswordMaxLen int `mapstructure:"passwordMaxLen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("appName", "mahjong-lite")
	v.SetDefault("httpPort", 8080)
	v.SetDefault("metricPort", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.expireHours", 72)
	v.SetDefault("auth.mode", "memory")
	v.SetDefault("history.mode", "memory")
	v.SetDefault("history.keepRecent", 100)
	v.SetDefault("stats.mode", "memory")
	v.SetDefault("game.players", 4)
	v.SetDefault("game.copiesPerKind", 4)
	v.SetDefault("game.totalRounds", 0)
	v.SetDefault("timers.turnSeconds", 20)
	v.SetDefault("timers.claimSeconds", 10)
	v.SetDefault("timers.nextRoundSeconds", 8)
	v.SetDefault("timers.rematchSeconds", 30)
	v.SetDefault("timers.roundCapSeconds", 600)
	v.SetDefault("timers.emptyRoomActiveSeconds", 60)
	v.SetDefault("timers.emptyRoomEndedSeconds", 15)
	v.SetDefault("ai.thinkMinMs", 800)
	v.SetDefault("ai.thinkMaxMs", 2500)
	v.SetDefault("room.maxMessageLog", 50)
	v.SetDefault("room.nameMaxLen", 24)
	v.SetDefault("room.passwordMaxLen", 16)
}

// Load 读配置文件并监听变更。环境变量覆盖用下划线写法
//（如 LOG_LEVEL=debug、AUTH_MODE=sqlite）。
func Load(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	var cfg ServerConfiguration
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	serverConfigM.Lock()
	ServerConfig = cfg
	serverConfigM.Unlock()

	v.WatchConfig()
	v.OnConfigChange(func(in fsnotify.Event) {
		var next ServerConfiguration
		if err := v.Unmarshal(&next); err != nil {
			logx.Warn("config reload failed: %v", err)
			return
		}
		serverConfigM.Lock()
		old := ServerConfig.Level
		ServerConfig = next
		serverConfigM.Unlock()
		if next.Level != old {
			logx.SetLevel(next.Level)
			logx.Info("log level switched to %s", next.Level)
		}
	})
	return nil
}

// Get returns a copy of the current configuration.
func Get() ServerConfiguration {
	serverConfigM.RLock()
	defer serverConfigM.RUnlock()
	return ServerConfig
}

// Timer durations as time.Duration helpers.

func (t TimerConf) Turn() time.Duration      { return time.Duration(t.TurnSeconds) * time.Second }
func (t TimerConf) Claim() time.Duration     { return time.Duration(t.ClaimSeconds) * time.Second }
func (t TimerConf) NextRound() time.Duration { return time.Duration(t.NextRoundSeconds) * time.Second }
func (t TimerConf) Rematch() time.Duration   { return time.Duration(t.RematchSeconds) * time.Second }
func (t TimerConf) RoundCap() time.Duration  { return time.Duration(t.RoundCapSeconds) * time.Second }
func (t TimerConf) EmptyRoomActive() time.Duration {
	return time.Duration(t.EmptyRoomActiveSeconds) * time.Second
}
func (t TimerConf) EmptyRoomEnded() time.Duration {
	return time.Duration(t.EmptyRoomEndedSeconds) * time.Second
}

func (a AIConf) ThinkMin() time.Duration { return time.Duration(a.ThinkMinMs) * time.Millisecond }
func (a AIConf) ThinkMax() time.Duration { return time.Duration(a.ThinkMaxMs) * time.Millisecond }
