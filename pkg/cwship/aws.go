package cwship

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/bft-labs/cwship/internal/adapters/cloudwatch"
	"github.com/bft-labs/cwship/internal/adapters/imds"
)

type awsSettings struct {
	config   aws.Config
	endpoint string
}

// WithAWSConfig delivers to CloudWatch Logs using cfg and resolves the
// instance identifier from EC2 instance metadata. An explicit
// WithLogsClient or WithIdentityResolver takes precedence. A non-empty
// endpoint overrides the CloudWatch Logs endpoint.
func WithAWSConfig(cfg aws.Config, endpoint string) Option {
	return func(o *options) {
		o.aws = &awsSettings{config: cfg, endpoint: endpoint}
	}
}

// LoadAWSConfig loads the default AWS configuration chain, optionally
// pinned to a region and shared-config profile.
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	return cloudwatch.LoadConfig(ctx, region, profile)
}

func (o *options) applyAWS() {
	if o.aws == nil {
		return
	}
	if o.client == nil {
		o.client = cloudwatch.NewFromConfig(o.aws.config, o.aws.endpoint, o.logger)
	}
	if o.resolver == nil {
		o.resolver = imds.NewFromConfig(o.aws.config)
	}
}
