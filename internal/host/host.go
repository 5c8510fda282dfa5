// Package host defines the contracts between the plugin and the Minecraft
// server that loads it. The server implements the senders and registrars, the
// plugin implements the executors and listeners.
package host

import (
	"context"
	"errors"
)

// ErrUnknownCommand is returned by a CommandRegistry when asked to bind an
// executor to a command the plugin descriptor does not declare.
var ErrUnknownCommand = errors.New("unknown command")

// CommandSender is anything that can run a command and receive chat messages,
// a player or the server console.
type CommandSender interface {
	Name() string
	SendMessage(msg string) error
}

// Player is a connected player.
type Player interface {
	CommandSender
}

// Command describes a command as declared in the plugin descriptor.
type Command struct {
	Name        string
	Description string
	Usage       string
}

// CommandExecutor handles invocations of a registered command. The returned
// bool reports whether the command was handled; the host prints the usage
// line when it is false.
type CommandExecutor interface {
	OnCommand(ctx context.Context, sender CommandSender, cmd Command, label string, args []string) (bool, error)
}

// PlayerJoinEvent is fired by the host once a player has joined.
type PlayerJoinEvent struct {
	Player Player
}

// JoinListener receives player join notifications.
type JoinListener interface {
	OnPlayerJoin(ctx context.Context, e *PlayerJoinEvent) error
}

// Unregister undoes a single registration.
type Unregister func()

// CommandRegistry binds executors to declared commands.
type CommandRegistry interface {
	Register(cmd Command, exec CommandExecutor) (Unregister, error)
}

// EventBus dispatches host events to subscribed listeners.
type EventBus interface {
	RegisterJoinListener(l JoinListener) (Unregister, error)
}
