// Package cloudwatch implements ports.LogsClient on Amazon CloudWatch Logs
// using the AWS SDK for Go v2.
package cloudwatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"

	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/internal/ports"
)

// describePageSize is the page size used when searching for a stream by prefix.
const describePageSize = 50

// API is the subset of the CloudWatch Logs client used here.
type API interface {
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// Client implements ports.LogsClient.
type Client struct {
	api    API
	logger ports.Logger
}

// NewClient wraps api.
func NewClient(api API, logger ports.Logger) *Client {
	return &Client{api: api, logger: logger}
}

// NewFromConfig builds a Client from an AWS configuration. A non-empty
// endpoint overrides the service endpoint.
func NewFromConfig(cfg aws.Config, endpoint string, logger ports.Logger) *Client {
	api := cloudwatchlogs.NewFromConfig(cfg, func(o *cloudwatchlogs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewClient(api, logger)
}

// FindStream pages through the streams sharing streamName as a prefix and
// returns the one whose name matches exactly.
func (c *Client) FindStream(ctx context.Context, logGroup, streamName string) (*ports.StreamInfo, error) {
	p := cloudwatchlogs.NewDescribeLogStreamsPaginator(c.api, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName:        aws.String(logGroup),
		LogStreamNamePrefix: aws.String(streamName),
		Limit:               aws.Int32(describePageSize),
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe log streams: %w", translate(err))
		}
		for _, s := range page.LogStreams {
			if aws.ToString(s.LogStreamName) == streamName {
				return &ports.StreamInfo{
					Name:                streamName,
					UploadSequenceToken: s.UploadSequenceToken,
				}, nil
			}
		}
	}
	return nil, nil
}

// CreateStream creates streamName in logGroup.
func (c *Client) CreateStream(ctx context.Context, logGroup, streamName string) error {
	_, err := c.api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(logGroup),
		LogStreamName: aws.String(streamName),
	})
	if err != nil {
		return fmt.Errorf("create log stream: %w", translate(err))
	}
	return nil
}

// PutBatch appends records and returns the next sequence token.
func (c *Client) PutBatch(ctx context.Context, logGroup, streamName string, records []domain.Record, token *string) (*string, error) {
	events := make([]types.InputLogEvent, len(records))
	for i, r := range records {
		events[i] = types.InputLogEvent{
			Message:   aws.String(r.Message),
			Timestamp: aws.Int64(r.Timestamp),
		}
	}

	out, err := c.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(logGroup),
		LogStreamName: aws.String(streamName),
		LogEvents:     events,
		SequenceToken: token,
	})
	if err != nil {
		return nil, translate(err)
	}

	if info := out.RejectedLogEventsInfo; info != nil {
		c.logger.Warn("log events rejected",
			ports.Stream(streamName),
			ports.Any("too_new_start_index", info.TooNewLogEventStartIndex),
			ports.Any("too_old_end_index", info.TooOldLogEventEndIndex),
			ports.Any("expired_end_index", info.ExpiredLogEventEndIndex),
		)
	}
	return out.NextSequenceToken, nil
}

// Error codes used when the typed exception is not available.
const (
	codeInvalidSequenceToken  = "InvalidSequenceTokenException"
	codeDataAlreadyAccepted   = "DataAlreadyAcceptedException"
	codeResourceAlreadyExists = "ResourceAlreadyExistsException"
	codeResourceNotFound      = "ResourceNotFoundException"
)

// translate maps provider errors onto domain errors.
func translate(err error) error {
	var invalid *types.InvalidSequenceTokenException
	if errors.As(err, &invalid) {
		return &domain.SequenceTokenError{
			Detail:   invalid.ErrorMessage(),
			Expected: invalid.ExpectedSequenceToken,
		}
	}

	var accepted *types.DataAlreadyAcceptedException
	if errors.As(err, &accepted) {
		return &domain.SequenceTokenError{
			Detail:          accepted.ErrorMessage(),
			Expected:        accepted.ExpectedSequenceToken,
			AlreadyAccepted: true,
		}
	}

	var exists *types.ResourceAlreadyExistsException
	if errors.As(err, &exists) {
		return fmt.Errorf("%w: %s", domain.ErrStreamAlreadyExists, exists.ErrorMessage())
	}

	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", domain.ErrStreamNotFound, notFound.ErrorMessage())
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case codeInvalidSequenceToken:
			return &domain.SequenceTokenError{Detail: apiErr.ErrorMessage()}
		case codeDataAlreadyAccepted:
			return &domain.SequenceTokenError{Detail: apiErr.ErrorMessage(), AlreadyAccepted: true}
		case codeResourceAlreadyExists:
			return fmt.Errorf("%w: %s", domain.ErrStreamAlreadyExists, apiErr.ErrorMessage())
		case codeResourceNotFound:
			return fmt.Errorf("%w: %s", domain.ErrStreamNotFound, apiErr.ErrorMessage())
		}
	}
	return err
}
