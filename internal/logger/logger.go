package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Emmyblinks655/taskpay-rewards/internal/config"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

var log = logrus.New()

// Init sets up a JSON logger on stdout. Configure replaces it once config is loaded.
func Init() {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(jsonFormatter())
	log.SetLevel(logrus.InfoLevel)
}

// Configure applies level, format and output settings.
func Configure(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	default:
		log.SetFormatter(jsonFormatter())
	}

	switch cfg.Output {
	case "file":
		if cfg.Filename != "" {
			log.SetOutput(fileWriter(cfg))
			return
		}
	case "both":
		if cfg.Filename != "" {
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter(cfg)))
			return
		}
	}
	log.SetOutput(os.Stdout)
}

func jsonFormatter() *logrus.JSONFormatter {
	return &logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	}
}

func fileWriter(cfg config.LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
}

// fields turns alternating key/value arguments into logrus fields.
func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			f["extra"] = kv[i]
			break
		}
		if err, ok := kv[i+1].(error); ok {
			f[key] = err.Error()
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

func Info(msg string, kv ...interface{}) {
	log.WithFields(fields(kv)).Info(msg)
}

func Infof(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Warn(msg string, kv ...interface{}) {
	log.WithFields(fields(kv)).Warn(msg)
}

func Warnf(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

func Error(msg string, kv ...interface{}) {
	log.WithFields(fields(kv)).Error(msg)
}

func Errorf(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Debug(msg string, kv ...interface{}) {
	log.WithFields(fields(kv)).Debug(msg)
}

func Debugf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Fatal(msg string, kv ...interface{}) {
	log.WithFields(fields(kv)).Fatal(msg)
}

func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

func WithFields(f map[string]interface{}) *logrus.Entry {
	return log.WithFields(logrus.Fields(f))
}

func WithError(err error) *logrus.Entry {
	return log.WithError(err)
}
