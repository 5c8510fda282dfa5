// Package handlers contains the plugin's command executors and event
// listeners, along with the registry the entry point walks to register them.
package handlers

import (
	"github.com/go-logr/logr"

	"github.com/man10/templateplugin/internal/config"
)

// HandlerDeps provides dependencies for command executors and listeners.
type HandlerDeps struct {
	Logger logr.Logger
	Config *config.Config
}
