package cwship

import (
	"context"
	"fmt"
)

// Appender is where plugins send records. *Shipper implements it.
type Appender interface {
	Log(stream string, msg any)
}

// PluginConfig is handed to each plugin on Initialize.
type PluginConfig struct {
	// LogGroup is the group the shipper writes to
	LogGroup string

	// Logger is the shipper's logger, never nil
	Logger Logger

	// Sink receives records produced by the plugin
	Sink Appender
}

// Plugin extends a Shipper with work that runs while it is started.
// Plugins are initialized in registration order and shut down in reverse.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize starts the plugin. An error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and releases its resources.
	Shutdown(ctx context.Context) error
}

// BasePlugin implements Plugin with no-ops. Embed it to implement only the
// methods a plugin needs.
type BasePlugin struct {
	name string
}

// NewBasePlugin creates a BasePlugin with the given name.
func NewBasePlugin(name string) BasePlugin {
	return BasePlugin{name: name}
}

// Name returns the plugin name.
func (b BasePlugin) Name() string {
	return b.name
}

// Initialize does nothing.
func (BasePlugin) Initialize(context.Context, PluginConfig) error {
	return nil
}

// Shutdown does nothing.
func (BasePlugin) Shutdown(context.Context) error {
	return nil
}

func initializePlugin(ctx context.Context, p Plugin, cfg PluginConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %s panicked during initialize: %v", p.Name(), r)
		}
	}()
	return p.Initialize(ctx, cfg)
}

func shutdownPlugin(ctx context.Context, p Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %s panicked during shutdown: %v", p.Name(), r)
		}
	}()
	return p.Shutdown(ctx)
}
