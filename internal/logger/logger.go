package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process wide logger.
var Log = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// SetDebug switches the shared logger to debug level.
func SetDebug(on bool) {
	if on {
		Log.SetLevel(logrus.DebugLevel)
	}
}
