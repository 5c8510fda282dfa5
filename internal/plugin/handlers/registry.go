package handlers

import (
	"github.com/man10/templateplugin/internal/host"
	"github.com/man10/templateplugin/internal/logger"
)

// RegisterAllCommands returns the executors to bind, keyed by command name.
// With debug enabled in the configuration each executor logs its invocations.
func RegisterAllCommands(deps HandlerDeps) map[string]host.CommandExecutor {
	commands := map[string]host.CommandExecutor{
		TemplateCommandName: NewTemplateCommand(deps),
	}

	if deps.Config != nil && deps.Config.Debug {
		for name, exec := range commands {
			commands[name] = logger.CommandMiddleware(deps.Logger.WithName("command"), exec)
		}
	}

	return commands
}

// RegisterAllListeners returns the join listeners to subscribe.
func RegisterAllListeners(deps HandlerDeps) []host.JoinListener {
	listeners := []host.JoinListener{
		NewJoinListener(deps),
	}

	if deps.Config != nil && deps.Config.Debug {
		for i, l := range listeners {
			listeners[i] = logger.JoinMiddleware(deps.Logger.WithName("listener"), l)
		}
	}

	return listeners
}
