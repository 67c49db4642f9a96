// 指示: miu200521358
// Package logging はアプリ共通のログ出力を提供する。
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ILogger はログ出力契約を表す。
type ILogger interface {
	Info(format string, params ...any)
	Warn(format string, params ...any)
	Error(format string, params ...any)
	Debug(format string, params ...any)
	IsDebugEnabled() bool
}

// Logger はslogを用いたログ出力を表す。
type Logger struct {
	level  *slog.LevelVar
	logger *slog.Logger
}

var (
	defaultLogger   *Logger
	defaultLoggerMu sync.RWMutex
)

// NewLogger は出力先とレベルを指定してLoggerを生成する。
func NewLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	levelVar := &slog.LevelVar{}
	levelVar.Set(level)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar})
	return &Logger{level: levelVar, logger: slog.New(handler)}
}

// DefaultLogger は既定のLoggerを返す。
func DefaultLogger() *Logger {
	defaultLoggerMu.RLock()
	logger := defaultLogger
	defaultLoggerMu.RUnlock()
	if logger != nil {
		return logger
	}

	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(os.Stderr, slog.LevelInfo)
	}
	return defaultLogger
}

// SetDefaultLogger は既定のLoggerを差し替える。
func SetDefaultLogger(logger *Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// ParseLevel は文字列からログレベルを解決する。
func ParseLevel(value string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// SetLevel は出力レベルを変更する。
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// IsDebugEnabled はデバッグ出力が有効か判定する。
func (l *Logger) IsDebugEnabled() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}

// Info はINFOログを出力する。
func (l *Logger) Info(format string, params ...any) {
	l.log(slog.LevelInfo, format, params...)
}

// Warn はWARNログを出力する。
func (l *Logger) Warn(format string, params ...any) {
	l.log(slog.LevelWarn, format, params...)
}

// Error はERRORログを出力する。
func (l *Logger) Error(format string, params ...any) {
	l.log(slog.LevelError, format, params...)
}

// Debug はDEBUGログを出力する。
func (l *Logger) Debug(format string, params ...any) {
	l.log(slog.LevelDebug, format, params...)
}

// With は属性を付与したLoggerを返す。
func (l *Logger) With(args ...any) *Logger {
	return &Logger{level: l.level, logger: l.logger.With(args...)}
}

// log はレベルが有効な場合のみ書式化して出力する。
func (l *Logger) log(level slog.Level, format string, params ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	message := format
	if len(params) > 0 {
		message = fmt.Sprintf(format, params...)
	}
	l.logger.Log(ctx, level, message)
}
