package handlers

import (
	"context"
	"fmt"

	"github.com/man10/templateplugin/internal/chat"
	"github.com/man10/templateplugin/internal/host"
)

// WelcomeMessage returns the message sent to a player called name when they join.
func WelcomeMessage(name string) string {
	return fmt.Sprintf("%s[Template] %sWelcome, %s!", chat.Aqua, chat.White, name)
}

// NewJoinListener returns the listener that welcomes joining players.
func NewJoinListener(deps HandlerDeps) host.JoinListener {
	return joinListener{deps}
}

type joinListener struct {
	deps HandlerDeps
}

func (h joinListener) OnPlayerJoin(ctx context.Context, e *host.PlayerJoinEvent) error {
	name := e.Player.Name()
	if err := e.Player.SendMessage(WelcomeMessage(name)); err != nil {
		return fmt.Errorf("failed to welcome %s: %w", name, err)
	}
	return nil
}
