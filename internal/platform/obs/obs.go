package obs

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// Setup configures the process-wide logger. When logFile is non-empty
// output is mirrored to a rotating file alongside stderr.
func Setup(logFile string, debug bool) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	if debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}

	return log
}

// Time reports operation duration (and failure, if any) on return.
//
//	defer obs.Time(ctx, "optimizer.BuildRoute")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		fields := logrus.Fields{
			"req_id": reqID,
			"op":     name,
			"dur_ms": dur.Milliseconds(),
		}
		if errp != nil && *errp != nil {
			logrus.WithFields(fields).WithError(*errp).Warn("operation failed")
			return
		}
		logrus.WithFields(fields).Debug("operation complete")
	}
}
