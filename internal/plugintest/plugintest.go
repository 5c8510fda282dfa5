// Package plugintest provides an in-memory host for exercising the plugin
// without a running Minecraft server. It is not safe for concurrent use.
package plugintest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/man10/templateplugin/internal/chat"
	"github.com/man10/templateplugin/internal/host"
)

// Sender is a CommandSender and Player that records every message it receives.
type Sender struct {
	name     string
	messages []string

	// Err, when set, is returned by SendMessage and the message is dropped.
	Err error
}

// NewSender returns a recording sender called name.
func NewSender(name string) *Sender {
	return &Sender{name: name}
}

// NewPlayer returns a recording player called name.
func NewPlayer(name string) *Sender {
	return NewSender(name)
}

func (s *Sender) Name() string {
	return s.name
}

func (s *Sender) SendMessage(msg string) error {
	if s.Err != nil {
		return s.Err
	}
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns the raw messages received so far.
func (s *Sender) Messages() []string {
	return append([]string(nil), s.messages...)
}

// PlainMessages returns the received messages with colour codes stripped.
func (s *Sender) PlainMessages() []string {
	plain := make([]string, len(s.messages))
	for i, msg := range s.messages {
		plain[i] = chat.Strip(msg)
	}
	return plain
}

// Server is an in-memory CommandRegistry and EventBus.
type Server struct {
	declared  map[string]host.Command
	executors map[string]*executor
	listeners []*listener

	commandRegistrations  int
	listenerRegistrations int

	// CommandErr and EventErr, when set, make the matching registration fail.
	CommandErr error
	EventErr   error
}

type executor struct {
	host.CommandExecutor
}

type listener struct {
	host.JoinListener
}

// NewServer returns a server on which the given commands are declared.
func NewServer(declared ...host.Command) *Server {
	s := &Server{
		declared:  make(map[string]host.Command, len(declared)),
		executors: make(map[string]*executor),
	}
	for _, cmd := range declared {
		s.declared[cmd.Name] = cmd
	}
	return s
}

// Register binds exec to cmd, replacing any previous executor like the
// server's setExecutor does.
func (s *Server) Register(cmd host.Command, exec host.CommandExecutor) (host.Unregister, error) {
	if s.CommandErr != nil {
		return nil, s.CommandErr
	}
	if _, ok := s.declared[cmd.Name]; !ok {
		return nil, fmt.Errorf("%w: %q", host.ErrUnknownCommand, cmd.Name)
	}

	entry := &executor{exec}
	s.executors[cmd.Name] = entry
	s.commandRegistrations++

	return func() {
		if s.executors[cmd.Name] == entry {
			delete(s.executors, cmd.Name)
		}
	}, nil
}

func (s *Server) RegisterJoinListener(l host.JoinListener) (host.Unregister, error) {
	if s.EventErr != nil {
		return nil, s.EventErr
	}

	entry := &listener{l}
	s.listeners = append(s.listeners, entry)
	s.listenerRegistrations++

	return func() {
		for i, other := range s.listeners {
			if other == entry {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}, nil
}

// Dispatch runs a command line such as "template a b" as sender. It returns
// host.ErrUnknownCommand when no executor is bound to the label.
func (s *Server) Dispatch(ctx context.Context, sender host.CommandSender, line string) (bool, error) {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return false, fmt.Errorf("%w: empty command line", host.ErrUnknownCommand)
	}

	label := fields[0]
	exec, ok := s.executors[label]
	if !ok {
		return false, fmt.Errorf("%w: %q", host.ErrUnknownCommand, label)
	}

	return exec.OnCommand(ctx, sender, s.declared[label], label, fields[1:])
}

// Join notifies every registered listener that p joined.
func (s *Server) Join(ctx context.Context, p host.Player) error {
	e := &host.PlayerJoinEvent{Player: p}

	var errs []error
	for _, l := range append([]*listener(nil), s.listeners...) {
		if err := l.OnPlayerJoin(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Executors returns the number of currently bound command executors.
func (s *Server) Executors() int {
	return len(s.executors)
}

// Listeners returns the number of currently registered join listeners.
func (s *Server) Listeners() int {
	return len(s.listeners)
}

// CommandRegistrations returns how many times Register succeeded.
func (s *Server) CommandRegistrations() int {
	return s.commandRegistrations
}

// ListenerRegistrations returns how many times RegisterJoinListener succeeded.
func (s *Server) ListenerRegistrations() int {
	return s.listenerRegistrations
}
