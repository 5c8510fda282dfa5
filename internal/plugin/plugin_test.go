package plugin_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/man10/templateplugin/internal/config"
	"github.com/man10/templateplugin/internal/descriptor"
	"github.com/man10/templateplugin/internal/host"
	"github.com/man10/templateplugin/internal/plugin"
	"github.com/man10/templateplugin/internal/plugintest"
)

type fixture struct {
	plugin  *plugin.Plugin
	server  *plugintest.Server
	dataDir string
	logs    *[]string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	desc, err := descriptor.Load()
	if err != nil {
		t.Fatalf("descriptor.Load() error = %v", err)
	}

	var declared []host.Command
	for _, name := range desc.CommandNames() {
		cmd, _ := desc.Command(name)
		declared = append(declared, cmd)
	}

	logs := &[]string{}
	log := funcr.New(func(prefix, args string) {
		*logs = append(*logs, args)
	}, funcr.Options{})

	server := plugintest.NewServer(declared...)
	dataDir := filepath.Join(t.TempDir(), desc.Name)

	return fixture{
		plugin: plugin.New(plugin.Deps{
			Logger:     log,
			Descriptor: desc,
			DataDir:    dataDir,
			Commands:   server,
			Events:     server,
		}),
		server:  server,
		dataDir: dataDir,
		logs:    logs,
	}
}

func (f fixture) logged(msg string) int {
	n := 0
	for _, line := range *f.logs {
		if strings.Contains(line, msg) {
			n++
		}
	}
	return n
}

func TestEnable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.plugin.Enable(ctx); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if !f.plugin.Enabled() {
		t.Error("Enabled() = false after Enable")
	}

	if _, err := os.Stat(config.Path(f.dataDir)); err != nil {
		t.Errorf("default config not saved: %v", err)
	}
	if f.plugin.Config() == nil {
		t.Error("Config() = nil after Enable")
	}

	want := `"msg"="Plugin enabled" "name"="TemplatePlugin" "version"="` + descriptor.BuildVersion() + `"`
	if n := f.logged(want); n != 1 {
		t.Errorf("logged %q %d times, want 1; logs = %q", want, n, *f.logs)
	}

	sender := plugintest.NewSender("Steve")
	handled, err := f.server.Dispatch(ctx, sender, "/template")
	if err != nil || !handled {
		t.Fatalf("Dispatch() = %v, %v; want true, nil", handled, err)
	}
	if got := sender.PlainMessages(); len(got) != 1 || got[0] != "[Template] Hello from TemplatePlugin!" {
		t.Errorf("command messages = %q", got)
	}

	alice := plugintest.NewPlayer("Alice")
	if err := f.server.Join(ctx, alice); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if got := alice.PlainMessages(); len(got) != 1 || got[0] != "[Template] Welcome, Alice!" {
		t.Errorf("join messages = %q", got)
	}
}

func TestEnableIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := f.plugin.Enable(ctx); err != nil {
			t.Fatalf("Enable() #%d error = %v", i+1, err)
		}
	}

	if n := f.server.CommandRegistrations(); n != 1 {
		t.Errorf("command registrations = %d, want 1", n)
	}
	if n := f.server.ListenerRegistrations(); n != 1 {
		t.Errorf("listener registrations = %d, want 1", n)
	}

	alice := plugintest.NewPlayer("Alice")
	if err := f.server.Join(ctx, alice); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if got := alice.Messages(); len(got) != 1 {
		t.Errorf("welcome messages = %d, want 1", len(got))
	}
}

func TestEnableKeepsUserConfig(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	custom := []byte("config-version: 1\ndebug: true\n")
	if err := os.WriteFile(config.Path(f.dataDir), custom, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := f.plugin.Enable(context.Background()); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	got, err := os.ReadFile(config.Path(f.dataDir))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(custom) {
		t.Errorf("config overwritten: %q", got)
	}
	if !f.plugin.Config().Debug {
		t.Error("Config().Debug = false, want true from user file")
	}
}

func TestDisable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		enables int
	}{
		{"never enabled", 0},
		{"enabled once", 1},
		{"enabled twice", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			ctx := context.Background()

			for i := 0; i < tt.enables; i++ {
				if err := f.plugin.Enable(ctx); err != nil {
					t.Fatalf("Enable() error = %v", err)
				}
			}

			if err := f.plugin.Disable(ctx); err != nil {
				t.Fatalf("Disable() error = %v", err)
			}
			if err := f.plugin.Disable(ctx); err != nil {
				t.Fatalf("second Disable() error = %v", err)
			}

			if f.plugin.Enabled() {
				t.Error("Enabled() = true after Disable")
			}
			if f.server.Executors() != 0 || f.server.Listeners() != 0 {
				t.Errorf("registrations left: %d executors, %d listeners", f.server.Executors(), f.server.Listeners())
			}
			if n := f.logged(`"msg"="Plugin disabled" "name"="TemplatePlugin"`); n != 2 {
				t.Errorf("logged disable %d times, want 2", n)
			}
		})
	}
}

func TestReenableAfterDisable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.plugin.Enable(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.plugin.Disable(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.plugin.Enable(ctx); err != nil {
		t.Fatal(err)
	}

	alice := plugintest.NewPlayer("Alice")
	if err := f.server.Join(ctx, alice); err != nil {
		t.Fatal(err)
	}
	if got := alice.Messages(); len(got) != 1 {
		t.Errorf("welcome messages after re-enable = %d, want 1", len(got))
	}
}

func TestEnableRegistrationFailure(t *testing.T) {
	t.Parallel()

	regErr := errors.New("event bus closed")
	f := newFixture(t)
	f.server.EventErr = regErr

	err := f.plugin.Enable(context.Background())
	if !errors.Is(err, regErr) {
		t.Fatalf("Enable() error = %v, want %v", err, regErr)
	}
	if f.plugin.Enabled() {
		t.Error("Enabled() = true after failed Enable")
	}
	if f.server.Executors() != 0 {
		t.Errorf("executors left after failed Enable = %d, want 0", f.server.Executors())
	}

	f.server.EventErr = nil
	if err := f.plugin.Enable(context.Background()); err != nil {
		t.Fatalf("Enable() after recovery error = %v", err)
	}
	if f.server.Executors() != 1 || f.server.Listeners() != 1 {
		t.Errorf("registrations = %d executors, %d listeners; want 1, 1", f.server.Executors(), f.server.Listeners())
	}
}

func TestEnableUndeclaredCommand(t *testing.T) {
	t.Parallel()

	desc, err := descriptor.Parse([]byte("name: Other\nversion: 1.0.0\nmain: x.Other\ncommands:\n  other: {}\n"), "1.0.0")
	if err != nil {
		t.Fatal(err)
	}

	server := plugintest.NewServer(host.Command{Name: "other"})
	p := plugin.New(plugin.Deps{
		Logger:     logr.Discard(),
		Descriptor: desc,
		DataDir:    t.TempDir(),
		Commands:   server,
		Events:     server,
	})

	if err := p.Enable(context.Background()); !errors.Is(err, host.ErrUnknownCommand) {
		t.Fatalf("Enable() error = %v, want ErrUnknownCommand", err)
	}
	if server.Listeners() != 0 {
		t.Errorf("listeners left after failed Enable = %d, want 0", server.Listeners())
	}
}
