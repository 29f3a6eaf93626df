package logx

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// 走 stdout，stderr 在部分终端里整条标红，看着像全在报错。
var logger = log.New(os.Stdout)

// Init 进程启动时调一次。level 支持热更（配置文件变更时再调 SetLevel）。
func Init(appName string, level string) {
	logger = log.New(os.Stdout)
	logger.SetPrefix(appName)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)
	logger.SetReportCaller(true)
	SetLevel(level)
}

func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
}

func Debug(format string, args ...any) { logger.Debugf(format, args...) }
func Info(format string, args ...any)  { logger.Infof(format, args...) }
func Warn(format string, args ...any)  { logger.Warnf(format, args...) }
func Error(format string, args ...any) { logger.Errorf(format, args...) }
func Fatal(format string, args ...any) { logger.Fatalf(format, args...) }
