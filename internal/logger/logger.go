// Package logger provides structured logging for the plugin. Loggers are
// logr.Logger values backed by zap, the same interface Gate hands to plugins.
package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/man10/templateplugin/internal/host"
)

// New creates a logger with the given level (debug, info, warn, error) and
// format (json or text). Unknown levels fall back to info.
func New(levelStr, format string) (logr.Logger, error) {
	var level zapcore.Level
	switch levelStr {
	case "debug":
		level = zap.DebugLevel
	case "info":
		level = zap.InfoLevel
	case "warn":
		level = zap.WarnLevel
	case "error":
		level = zap.ErrorLevel
	default:
		level = zap.InfoLevel
	}

	var cfg zap.Config
	switch format {
	case "text":
		cfg = zap.NewDevelopmentConfig()
	case "json", "":
		cfg = zap.NewProductionConfig()
	default:
		return logr.Discard(), fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	zapLog, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("failed to build logger: %w", err)
	}

	return zapr.NewLogger(zapLog), nil
}

// CommandMiddleware wraps exec so every invocation is logged
// together with how long it took.
func CommandMiddleware(log logr.Logger, exec host.CommandExecutor) host.CommandExecutor {
	return commandLogger{log: log, next: exec}
}

type commandLogger struct {
	log  logr.Logger
	next host.CommandExecutor
}

func (m commandLogger) OnCommand(ctx context.Context, sender host.CommandSender, cmd host.Command, label string, args []string) (bool, error) {
	startTime := time.Now()
	log := m.log.WithValues(
		"command", cmd.Name,
		"label", label,
		"sender", sender.Name(),
		"args", len(args),
	)
	log.Info("Processing command")

	handled, err := m.next.OnCommand(ctx, sender, cmd, label, args)
	if err != nil {
		log.Error(err, "Command failed", "duration", time.Since(startTime))
		return handled, err
	}

	log.Info("Finished processing command", "handled", handled, "duration", time.Since(startTime))
	return handled, nil
}

// JoinMiddleware wraps l so every join notification is logged.
func JoinMiddleware(log logr.Logger, l host.JoinListener) host.JoinListener {
	return joinLogger{log: log, next: l}
}

type joinLogger struct {
	log  logr.Logger
	next host.JoinListener
}

func (m joinLogger) OnPlayerJoin(ctx context.Context, e *host.PlayerJoinEvent) error {
	startTime := time.Now()
	log := m.log.WithValues("player", e.Player.Name())
	log.Info("Processing player join")

	if err := m.next.OnPlayerJoin(ctx, e); err != nil {
		log.Error(err, "Join listener failed", "duration", time.Since(startTime))
		return err
	}

	log.Info("Finished processing player join", "duration", time.Since(startTime))
	return nil
}
