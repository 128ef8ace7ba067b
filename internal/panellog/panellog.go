// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package panellog writes per-session log files for the interactive panel,
// where stdout belongs to the TUI, and LOG_LEVEL-aware stderr logging for
// headless commands.
//
// Valid LOG_LEVEL values: "debug", "info", "warn", "error". Default: "info".
package panellog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LogDirEnvVar overrides the session log directory.
const LogDirEnvVar = "INTEL_SCOUT_LOG_DIR"

// Session is one command invocation's log file. All methods are safe on a
// nil receiver so callers can ignore Open failures.
type Session struct {
	file   *os.File
	logger *slog.Logger
	start  time.Time
}

// Open creates a timestamped log file for a command and returns the session
// around it.
func Open(command string) (*Session, error) {
	dir := logDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.log", command, timestamp))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: envLevel()})
	logger := slog.New(handler).With("command", command)

	s := &Session{file: file, logger: logger, start: time.Now()}
	logger.Info("session started")
	return s, nil
}

// Logger returns the session's logger, or a discarding logger on a nil
// session.
func (s *Session) Logger() *slog.Logger {
	if s == nil || s.logger == nil {
		return Discard()
	}
	return s.logger
}

// Close writes the session footer, closes the file, and returns its path.
func (s *Session) Close() string {
	if s == nil || s.file == nil {
		return ""
	}
	s.logger.Info("session ended", "duration", time.Since(s.start).Round(time.Millisecond).String())
	path := s.file.Name()
	s.file.Close()
	return path
}

// Stderr returns a LOG_LEVEL-aware logger for headless commands, leaving
// stdout to command output.
func Stderr() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: envLevel()}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func logDir() string {
	if dir := os.Getenv(LogDirEnvVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".intel-scout", "logs")
	}
	return filepath.Join(home, ".intel-scout", "logs")
}

// envLevel converts LOG_LEVEL to a slog.Level.
func envLevel() slog.Level {
	return parseLevel(os.Getenv("LOG_LEVEL"))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "warning", "WARN":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
