// internal/logger/logger.go
package logger

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger configuration
type Config struct {
	LogsDirectory string
	LogFileFormat string
	TimeZone      string
	Level         string
}

var (
	initialized int32 // 0 = not initialized, 1 = initialized
	sugar       *zap.SugaredLogger
	logFilePath string
	logFile     *os.File
	mu          sync.Mutex // protect against concurrent initialization
)

func init() {
	dev, err := zap.NewDevelopment(zap.AddCallerSkip(1))
	if err != nil {
		dev = zap.NewNop()
	}
	sugar = dev.Sugar()
}

// SetupLogger initializes the logger with file and console output.
func SetupLogger(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	if atomic.LoadInt32(&initialized) == 1 {
		return fmt.Errorf("logger already initialized")
	}

	if config.TimeZone == "" {
		config.TimeZone = "Local"
	}
	loc, err := time.LoadLocation(config.TimeZone)
	if err != nil {
		return fmt.Errorf("failed to load time zone '%s': %w", config.TimeZone, err)
	}

	level := zapcore.InfoLevel
	if config.Level != "" {
		if level, err = zapcore.ParseLevel(config.Level); err != nil {
			return fmt.Errorf("invalid log level '%s': %w", config.Level, err)
		}
	}

	if err := os.MkdirAll(config.LogsDirectory, 0775); err != nil {
		return fmt.Errorf("failed to create logs directory '%s': %w", config.LogsDirectory, err)
	}

	logFileName := fmt.Sprintf(config.LogFileFormat, time.Now().In(loc).Format("2006-01-02"))

	// Respect whether LogFileFormat is an absolute path or not
	if filepath.IsAbs(logFileName) {
		logFilePath = logFileName
	} else {
		logFilePath = filepath.Join(config.LogsDirectory, logFileName)
	}

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0664)
	if err != nil {
		return fmt.Errorf("failed to open log file '%s': %w", logFilePath, err)
	}
	logFile = f

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format("2006-01-02 15:04:05 MST"))
	}
	consoleConfig := encoderConfig
	consoleConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), level),
	)
	sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()

	atomic.StoreInt32(&initialized, 1)
	LogInfo("Logger initialized, writing to %s", logFilePath)
	return nil
}

// Use replaces the active logger. Tests pass zap.NewNop().
func Use(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Sync flushes buffered entries and closes the log file.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func GetLogFilePath() string {
	return logFilePath
}

func IsInitialized() bool {
	return atomic.LoadInt32(&initialized) == 1
}

func LogDebug(message string, v ...interface{}) { sugar.Debugf(message, v...) }
func LogInfo(message string, v ...interface{})  { sugar.Infof(message, v...) }
func LogWarn(message string, v ...interface{})  { sugar.Warnf(message, v...) }
func LogError(message string, v ...interface{}) { sugar.Errorf(message, v...) }
func LogFatal(message string, v ...interface{}) {
	sugar.Errorf(message, v...)
	_ = sugar.Sync()
	os.Exit(1)
}

// LogInfow logs a message with structured key/value pairs.
func LogInfow(message string, keysAndValues ...interface{}) {
	sugar.Infow(message, keysAndValues...)
}

// LogErrorw logs an error with structured key/value pairs.
func LogErrorw(message string, keysAndValues ...interface{}) {
	sugar.Errorw(message, keysAndValues...)
}

func LogHTTPRequest(r *http.Request) {
	clientIP := GetClientIP(r)
	LogInfo("HTTP %s %s from %s", r.Method, r.URL.Path, clientIP)
}

func LogHTTPError(r *http.Request, status int, err error) {
	clientIP := GetClientIP(r)
	LogError("HTTP %d error for %s %s from %s: %v", status, r.Method, r.URL.Path, clientIP, err)
}

func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
