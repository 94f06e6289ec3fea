package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global logrus logger. When logFile is non-empty,
// output is duplicated to a size-rotated file so scheduled runs keep a
// history without growing without bound.
func Setup(level, logFile string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if logFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		logrus.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}
