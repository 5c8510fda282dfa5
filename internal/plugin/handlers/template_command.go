package handlers

import (
	"context"
	"fmt"

	"github.com/man10/templateplugin/internal/chat"
	"github.com/man10/templateplugin/internal/host"
)

// TemplateCommandName is the command the template executor is bound to.
const TemplateCommandName = "template"

// HelloMessage is sent to whoever runs /template.
var HelloMessage = fmt.Sprintf("%s[Template] %sHello from TemplatePlugin!", chat.Green, chat.White)

// NewTemplateCommand returns the executor for the /template command.
func NewTemplateCommand(deps HandlerDeps) host.CommandExecutor {
	return templateCommand{deps}
}

// templateCommand greets the sender. Arguments are ignored.
type templateCommand struct {
	deps HandlerDeps
}

func (h templateCommand) OnCommand(ctx context.Context, sender host.CommandSender, cmd host.Command, label string, args []string) (bool, error) {
	if err := sender.SendMessage(HelloMessage); err != nil {
		return true, fmt.Errorf("failed to send greeting to %s: %w", sender.Name(), err)
	}
	return true, nil
}
