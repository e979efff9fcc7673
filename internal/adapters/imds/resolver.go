// Package imds resolves the EC2 instance identifier from the instance
// metadata service.
package imds

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

// instanceIDPath is the metadata path of the instance identifier.
const instanceIDPath = "instance-id"

// maxMetadataBytes bounds how much of the response is read.
const maxMetadataBytes = 1024

// MetadataAPI is the subset of the IMDS client used here.
type MetadataAPI interface {
	GetMetadata(ctx context.Context, params *imds.GetMetadataInput, optFns ...func(*imds.Options)) (*imds.GetMetadataOutput, error)
}

// Resolver implements ports.IdentityResolver.
type Resolver struct {
	api MetadataAPI
}

// NewResolver wraps api.
func NewResolver(api MetadataAPI) *Resolver {
	return &Resolver{api: api}
}

// NewFromConfig builds a Resolver from an AWS configuration.
func NewFromConfig(cfg aws.Config) *Resolver {
	return NewResolver(imds.NewFromConfig(cfg))
}

// ResolveInstanceID returns the instance identifier.
func (r *Resolver) ResolveInstanceID(ctx context.Context) (string, error) {
	out, err := r.api.GetMetadata(ctx, &imds.GetMetadataInput{Path: instanceIDPath})
	if err != nil {
		return "", fmt.Errorf("get instance id: %w", err)
	}
	defer out.Content.Close()

	data, err := io.ReadAll(io.LimitReader(out.Content, maxMetadataBytes))
	if err != nil {
		return "", fmt.Errorf("read instance id: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
