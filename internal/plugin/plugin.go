// Package plugin implements the TemplatePlugin entry point: the enable and
// disable hooks the host calls around the plugin's lifetime.
package plugin

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/man10/templateplugin/internal/config"
	"github.com/man10/templateplugin/internal/descriptor"
	"github.com/man10/templateplugin/internal/host"
	"github.com/man10/templateplugin/internal/plugin/handlers"
)

// Deps are the capabilities the host hands to the plugin.
type Deps struct {
	Logger     logr.Logger
	Descriptor *descriptor.Descriptor
	// DataDir is the plugin's own directory, where config.yml lives.
	DataDir  string
	Commands host.CommandRegistry
	Events   host.EventBus
}

// Plugin is the TemplatePlugin entry point. Enable and Disable are expected
// to be serialised by the host.
type Plugin struct {
	logger     logr.Logger
	descriptor *descriptor.Descriptor
	dataDir    string
	commands   host.CommandRegistry
	events     host.EventBus

	enabled      bool
	cfg          *config.Config
	unregisterFn []host.Unregister
}

// New creates the plugin. Nothing is registered until Enable.
func New(deps Deps) *Plugin {
	return &Plugin{
		logger:     deps.Logger.WithName(deps.Descriptor.Name),
		descriptor: deps.Descriptor,
		dataDir:    deps.DataDir,
		commands:   deps.Commands,
		events:     deps.Events,
	}
}

// Name returns the plugin name from the descriptor.
func (p *Plugin) Name() string {
	return p.descriptor.Name
}

// Config returns the configuration loaded by Enable, or nil before that.
func (p *Plugin) Config() *config.Config {
	return p.cfg
}

// Enabled reports whether the plugin is currently enabled.
func (p *Plugin) Enabled() bool {
	return p.enabled
}

// Enable saves the default configuration if none exists, loads it, and
// registers the command executors and join listeners. Calling Enable on an
// enabled plugin does nothing. On failure every registration made so far is
// undone and the error is returned to the host.
func (p *Plugin) Enable(ctx context.Context) error {
	if p.enabled {
		p.logger.V(1).Info("Plugin already enabled, skipping")
		return nil
	}

	written, err := config.SaveDefault(p.dataDir)
	if err != nil {
		return fmt.Errorf("failed to save default config: %w", err)
	}
	if written {
		p.logger.V(1).Info("Saved default configuration", "path", config.Path(p.dataDir))
	}

	cfg, err := config.Load(p.dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	p.cfg = cfg

	p.logger.Info("Plugin enabled", "name", p.descriptor.Name, "version", p.descriptor.Version)

	deps := handlers.HandlerDeps{
		Logger: p.logger,
		Config: cfg,
	}

	if err := p.register(deps); err != nil {
		p.unregisterAll()
		return err
	}

	p.enabled = true
	return nil
}

func (p *Plugin) register(deps handlers.HandlerDeps) error {
	for name, exec := range handlers.RegisterAllCommands(deps) {
		cmd, ok := p.descriptor.Command(name)
		if !ok {
			return fmt.Errorf("failed to register command %q: %w", name, host.ErrUnknownCommand)
		}

		unregister, err := p.commands.Register(cmd, exec)
		if err != nil {
			return fmt.Errorf("failed to register command %q: %w", name, err)
		}
		p.unregisterFn = append(p.unregisterFn, unregister)
	}

	for _, l := range handlers.RegisterAllListeners(deps) {
		unregister, err := p.events.RegisterJoinListener(l)
		if err != nil {
			return fmt.Errorf("failed to register join listener: %w", err)
		}
		p.unregisterFn = append(p.unregisterFn, unregister)
	}

	return nil
}

// Disable undoes every registration made by Enable. It never fails and may
// be called whether or not the plugin is enabled.
func (p *Plugin) Disable(ctx context.Context) error {
	p.unregisterAll()
	p.enabled = false

	p.logger.Info("Plugin disabled", "name", p.descriptor.Name)
	return nil
}

func (p *Plugin) unregisterAll() {
	for i := len(p.unregisterFn) - 1; i >= 0; i-- {
		if fn := p.unregisterFn[i]; fn != nil {
			fn()
		}
	}
	p.unregisterFn = nil
}
