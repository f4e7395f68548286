package logger

import (
	"github.com/sirupsen/logrus"
)

// Log — глобальный структурированный логгер сервиса.
var Log *logrus.Logger

// Init настраивает логгер под окружение: в development — текстовый
// формат и debug, в остальных окружениях — JSON и переданный уровень.
func Init(level, env string) {
	Log = logrus.New()

	if env == "development" {
		Log.SetLevel(logrus.DebugLevel)
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	Log.SetFormatter(&logrus.JSONFormatter{})
}
