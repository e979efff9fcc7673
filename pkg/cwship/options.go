package cwship

import (
	"github.com/bft-labs/cwship/internal/adapters/fs"
	"github.com/bft-labs/cwship/pkg/log"
)

// Option configures optional behavior of a Shipper.
type Option func(*options)

type options struct {
	client       LogsClient
	logger       Logger
	resolver     IdentityResolver
	statusRepo   StatusRepository
	eventHandler EventHandler
	plugins      []Plugin
	aws          *awsSettings
}

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
}

// WithLogsClient sets the remote log store. It is required.
func WithLogsClient(client LogsClient) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithLogger sets the structured logger.
// If not provided, a no-op logger is used.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIdentityResolver sets how the instance identifier is looked up when
// AddInstanceID is enabled. Without one the identifier stays "unknown".
func WithIdentityResolver(r IdentityResolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithStatusRepository overrides where the delivery status is persisted.
// By default a status.json file is written to Config.StatusDir when set.
func WithStatusRepository(repo StatusRepository) Option {
	return func(o *options) {
		o.statusRepo = repo
	}
}

// WithEventHandler sets a handler for shipper events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized on Start.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

func (o *options) statusRepository(cfg Config) StatusRepository {
	if o.statusRepo != nil {
		return o.statusRepo
	}
	if cfg.StatusDir != "" {
		return fs.NewStatusFile(cfg.StatusDir)
	}
	return nil
}
