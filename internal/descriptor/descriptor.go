// Package descriptor loads the plugin descriptor (plugin.yml) that tells the
// host the plugin's name, version, entry point and the commands it claims.
package descriptor

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/anttikivi/semver"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/man10/templateplugin/internal/host"
)

//go:embed plugin.yml
var pluginYAML []byte

// buildVersion is interpolated into plugin.yml. It is set at build time with
// -ldflags "-X github.com/man10/templateplugin/internal/descriptor.buildVersion=x.y.z".
var buildVersion = "1.0.0" //nolint:gochecknoglobals // set at build time

const versionPlaceholder = "${version}"

var (
	ErrInvalidDescriptor = errors.New("invalid plugin descriptor")
	ErrInvalidVersion    = errors.New("plugin version must be valid semver")
)

// Descriptor is the parsed plugin.yml. Keys it does not model are ignored.
type Descriptor struct {
	Name        string                     `yaml:"name"        validate:"required,alphanum"`
	Version     string                     `yaml:"version"     validate:"required"`
	Main        string                     `yaml:"main"        validate:"required"`
	Description string                     `yaml:"description"`
	Author      string                     `yaml:"author"`
	Authors     []string                   `yaml:"authors"`
	Website     string                     `yaml:"website"`
	Prefix      string                     `yaml:"prefix"`
	APIVersion  string                     `yaml:"api-version"`
	Load        string                     `yaml:"load"        validate:"omitempty,oneof=STARTUP POSTWORLD"`
	Depend      []string                   `yaml:"depend"`
	SoftDepend  []string                   `yaml:"softdepend"`
	LoadBefore  []string                   `yaml:"loadbefore"`
	Commands    map[string]CommandEntry    `yaml:"commands"    validate:"required,min=1"`
	Permissions map[string]PermissionEntry `yaml:"permissions" validate:"dive"`
}

// CommandEntry is one command declaration.
type CommandEntry struct {
	Description       string   `yaml:"description"`
	Usage             string   `yaml:"usage"`
	Aliases           []string `yaml:"aliases"`
	Permission        string   `yaml:"permission"`
	PermissionMessage string   `yaml:"permission-message"`
}

// PermissionEntry is one permission declaration. Default is one of true,
// false, op or not op.
type PermissionEntry struct {
	Description string          `yaml:"description"`
	Default     string          `yaml:"default"     validate:"omitempty,oneof=true false op 'not op'"`
	Children    map[string]bool `yaml:"children"`
}

// BuildVersion returns the version the binary was built with.
func BuildVersion() string {
	return buildVersion
}

// Load parses the embedded plugin.yml with the build version interpolated.
func Load() (*Descriptor, error) {
	return Parse(pluginYAML, buildVersion)
}

// Parse decodes a descriptor from data, replacing ${version} with version.
func Parse(data []byte, version string) (*Descriptor, error) {
	expanded := strings.ReplaceAll(string(data), versionPlaceholder, version)

	var d Descriptor
	if err := yaml.Unmarshal([]byte(expanded), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	if err := validator.New().Struct(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	if _, err := semver.Parse(d.Version); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, d.Version, err)
	}

	return &d, nil
}

// Command returns the declaration of the named command.
func (d *Descriptor) Command(name string) (host.Command, bool) {
	entry, ok := d.Commands[name]
	if !ok {
		return host.Command{}, false
	}

	return host.Command{
		Name:        name,
		Description: entry.Description,
		Usage:       entry.Usage,
	}, true
}

// CommandNames returns the declared command names in sorted order.
func (d *Descriptor) CommandNames() []string {
	names := make([]string, 0, len(d.Commands))
	for name := range d.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
