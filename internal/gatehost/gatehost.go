// Package gatehost runs the plugin inside the Gate Minecraft proxy. It adapts
// Gate's command manager and event manager to the host contracts and drives
// the plugin lifecycle from Gate's init hook and shutdown event.
package gatehost

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"go.minekube.com/brigodier"
	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/common/minecraft/component/codec/legacy"
	"go.minekube.com/gate/pkg/command"
	"go.minekube.com/gate/pkg/edition/java/proxy"

	"github.com/man10/templateplugin/internal/descriptor"
	"github.com/man10/templateplugin/internal/host"
	"github.com/man10/templateplugin/internal/plugin"
)

const (
	argsArgument = "args"
	consoleName  = "CONSOLE"
)

var legacyCodec = &legacy.Legacy{Char: legacy.SectionChar}

// Options configure the Gate binding.
type Options struct {
	// DataDir is where config.yml is kept.
	DataDir string
	// Logger is used when Gate does not put a logger in the init context.
	Logger logr.Logger
}

// Plugin returns the Gate plugin wrapping TemplatePlugin. Append it to
// proxy.Plugins before executing Gate.
func Plugin(opts Options) (proxy.Plugin, error) {
	desc, err := descriptor.Load()
	if err != nil {
		return proxy.Plugin{}, err
	}

	return proxy.Plugin{
		Name: desc.Name,
		Init: func(ctx context.Context, p *proxy.Proxy) error {
			log, err := logr.FromContext(ctx)
			if err != nil {
				log = opts.Logger
			}
			return initPlugin(ctx, log, p, desc, opts.DataDir)
		},
	}, nil
}

func initPlugin(ctx context.Context, log logr.Logger, p *proxy.Proxy, desc *descriptor.Descriptor, dataDir string) error {
	tp := plugin.New(plugin.Deps{
		Logger:     log,
		Descriptor: desc,
		DataDir:    dataDir,
		Commands:   newCommandRegistry(desc, managerNodes(p.Command())),
		Events:     newEventBus(ctx, log.WithName("events"), postLoginSubscriber(p.Event())),
	})

	if err := tp.Enable(ctx); err != nil {
		return fmt.Errorf("failed to enable %s: %w", desc.Name, err)
	}

	event.Subscribe(p.Event(), 0, func(*proxy.ShutdownEvent) {
		_ = tp.Disable(ctx)
	})

	return nil
}

// registerNodeFunc adds a command node named name that runs run.
type registerNodeFunc func(name string, run brigodier.Command)

// managerNodes registers a brigodier literal with an optional greedy args
// argument, so any argument list reaches the executor.
func managerNodes(mgr *command.Manager) registerNodeFunc {
	return func(name string, run brigodier.Command) {
		mgr.Register(brigodier.Literal(name).
			Executes(run).
			Then(brigodier.Argument(argsArgument, brigodier.StringPhrase).Executes(run)))
	}
}

// commandRegistry binds executors to brigodier literals. Gate offers no way
// to remove a command node, so a node is registered once per name and looks
// up its current executor on every run; unregistering clears the executor.
type commandRegistry struct {
	registerNode registerNodeFunc
	declared     map[string]bool

	mu        sync.Mutex
	executors map[string]*boundExecutor
	nodes     map[string]bool
}

type boundExecutor struct {
	cmd  host.Command
	exec host.CommandExecutor
}

func newCommandRegistry(desc *descriptor.Descriptor, registerNode registerNodeFunc) *commandRegistry {
	declared := make(map[string]bool, len(desc.Commands))
	for _, name := range desc.CommandNames() {
		declared[name] = true
	}

	return &commandRegistry{
		registerNode: registerNode,
		declared:     declared,
		executors:    make(map[string]*boundExecutor),
		nodes:        make(map[string]bool),
	}
}

func (r *commandRegistry) Register(cmd host.Command, exec host.CommandExecutor) (host.Unregister, error) {
	if !r.declared[cmd.Name] {
		return nil, fmt.Errorf("%w: %q", host.ErrUnknownCommand, cmd.Name)
	}

	bound := &boundExecutor{cmd: cmd, exec: exec}

	r.mu.Lock()
	r.executors[cmd.Name] = bound
	needsNode := !r.nodes[cmd.Name]
	r.nodes[cmd.Name] = true
	r.mu.Unlock()

	if needsNode {
		r.registerNode(cmd.Name, r.run(cmd.Name))
	}

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.executors[cmd.Name] == bound {
			delete(r.executors, cmd.Name)
		}
	}, nil
}

func (r *commandRegistry) lookup(name string) *boundExecutor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.executors[name]
}

func (r *commandRegistry) run(name string) brigodier.Command {
	return command.Command(func(c *command.Context) error {
		return r.execute(c, name, sourceSender{c.Source}, c.String(argsArgument))
	})
}

// execute runs the executor currently bound to name with rawArgs split on
// whitespace. It does nothing when no executor is bound.
func (r *commandRegistry) execute(ctx context.Context, name string, sender host.CommandSender, rawArgs string) error {
	bound := r.lookup(name)
	if bound == nil {
		return nil
	}

	var args []string
	if rawArgs != "" {
		args = strings.Fields(rawArgs)
	}

	_, err := bound.exec.OnCommand(ctx, sender, bound.cmd, name, args)
	return err
}

// subscribeFunc subscribes fn to player joins and returns its unsubscribe.
type subscribeFunc func(fn func(host.Player)) func()

// postLoginSubscriber subscribes to Gate's PostLoginEvent.
func postLoginSubscriber(mgr event.Manager) subscribeFunc {
	return func(fn func(host.Player)) func() {
		return event.Subscribe(mgr, 0, func(e *proxy.PostLoginEvent) {
			fn(playerSender{e.Player()})
		})
	}
}

// eventBus forwards player joins to registered listeners.
type eventBus struct {
	ctx       context.Context
	log       logr.Logger
	subscribe subscribeFunc
}

func newEventBus(ctx context.Context, log logr.Logger, subscribe subscribeFunc) *eventBus {
	return &eventBus{ctx: ctx, log: log, subscribe: subscribe}
}

func (b *eventBus) RegisterJoinListener(l host.JoinListener) (host.Unregister, error) {
	unsubscribe := b.subscribe(func(pl host.Player) {
		if err := l.OnPlayerJoin(b.ctx, &host.PlayerJoinEvent{Player: pl}); err != nil {
			b.log.Error(err, "Join listener failed", "player", pl.Name())
		}
	})
	return host.Unregister(unsubscribe), nil
}

// sourceSender adapts a Gate command source.
type sourceSender struct {
	src command.Source
}

func (s sourceSender) Name() string {
	if pl, ok := s.src.(proxy.Player); ok {
		return pl.Username()
	}
	return consoleName
}

func (s sourceSender) SendMessage(msg string) error {
	comp, err := toComponent(msg)
	if err != nil {
		return err
	}
	return s.src.SendMessage(comp)
}

// playerSender adapts a Gate player.
type playerSender struct {
	player proxy.Player
}

func (p playerSender) Name() string {
	return p.player.Username()
}

func (p playerSender) SendMessage(msg string) error {
	comp, err := toComponent(msg)
	if err != nil {
		return err
	}
	return p.player.SendMessage(comp)
}

// toComponent converts a message with legacy section-sign codes into a chat
// component.
func toComponent(msg string) (component.Component, error) {
	comp, err := legacyCodec.Unmarshal([]byte(msg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse legacy text %q: %w", msg, err)
	}
	return comp, nil
}
