// Package logging provides the engine-wide structured logger.
//
// The engine logs pipeline stage boundaries (sort done, groups counted,
// kernels dispatched) at debug level and configuration problems at warn
// level. Hot loops never log.
package logging

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger      *zap.Logger
	log         *zap.SugaredLogger
	initLock    sync.Mutex
	initialised bool
)

// DebugEnabled is cached as a plain bool so hot paths can gate without
// touching the zap core. It is only written during initialisation.
var DebugEnabled = false

func init() {
	initialise(zapcore.InfoLevel, "console", false)
}

// Initialise reconfigures the global logger. Safe to call multiple times;
// later calls win.
func Initialise(level zapcore.Level, encoding string) {
	initialise(level, encoding, true)
}

// Configure parses a textual level ("debug", "info", "warn", "error") and
// encoding ("console" or "json") and applies them.
func Configure(level, format string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return err
	}
	encoding := strings.ToLower(strings.TrimSpace(format))
	if encoding != "console" && encoding != "json" {
		encoding = "console"
	}
	Initialise(lvl, encoding)
	return nil
}

func initialise(level zapcore.Level, encoding string, override bool) {
	initLock.Lock()
	defer initLock.Unlock()
	if initialised && !override {
		return
	}
	logger = createLogger(level, encoding)
	log = logger.Sugar()
	DebugEnabled = logger.Core().Enabled(zap.DebugLevel)
	initialised = true
}

func createLogger(level zapcore.Level, encoding string) *zap.Logger {
	encoderConf := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	conf := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    encoderConf,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stdout"},
	}
	conf.DisableCaller = true
	conf.DisableStacktrace = true
	l, _ := conf.Build()
	return l
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.999999"))
}

// Debugf logs at debug level with Printf formatting.
func Debugf(format string, args ...interface{}) {
	if !DebugEnabled {
		return
	}
	log.Debugf(format, args...)
}

// Infof logs at info level with Printf formatting.
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Warnf logs at warn level with Printf formatting.
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// Errorf logs at error level with Printf formatting.
func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}
