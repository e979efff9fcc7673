// Package cwship buffers log records per stream and ships them to
// CloudWatch Logs in batches, without blocking the caller.
//
// Example usage:
//
//	awsCfg, err := cwship.LoadAWSConfig(ctx, "eu-west-1", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg := cwship.DefaultConfig()
//	cfg.LogGroup = "myapp"
//	s, err := cwship.New(cfg, cwship.WithAWSConfig(awsCfg, ""))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	s.Log("web", "request served")
//	defer s.Stop()
package cwship

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/bft-labs/cwship/pkg/cwship"
)

// Shipper buffers and delivers log records. See pkg/cwship.
type Shipper = cwship.Shipper

// Config holds the settings of a Shipper.
// Use DefaultConfig() to get a Config with default values.
type Config = cwship.Config

// Option configures optional behavior of a Shipper.
type Option = cwship.Option

// New creates a Shipper. It fails only when no log store is configured.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	return cwship.New(cfg, opts...)
}

// DefaultConfig returns a Config with default values and no log group.
func DefaultConfig() Config {
	return cwship.DefaultConfig()
}

// LoadAWSConfig loads the default AWS configuration chain.
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	return cwship.LoadAWSConfig(ctx, region, profile)
}

// WithAWSConfig delivers to CloudWatch Logs using cfg.
func WithAWSConfig(cfg aws.Config, endpoint string) Option {
	return cwship.WithAWSConfig(cfg, endpoint)
}

// WithLogger sets the structured logger.
func WithLogger(logger cwship.Logger) Option {
	return cwship.WithLogger(logger)
}

// Run starts a Shipper for cfg, blocks until ctx is cancelled, then stops
// it with a final flush.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	s, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := s.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}
