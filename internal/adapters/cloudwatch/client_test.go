package cloudwatch

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/cwship/internal/domain"
	"github.com/bft-labs/cwship/pkg/log"
)

type fakeAPI struct {
	pages       []*cloudwatchlogs.DescribeLogStreamsOutput
	describes   []*cloudwatchlogs.DescribeLogStreamsInput
	describeErr error

	creates   []*cloudwatchlogs.CreateLogStreamInput
	createErr error

	puts   []*cloudwatchlogs.PutLogEventsInput
	putOut *cloudwatchlogs.PutLogEventsOutput
	putErr error
}

func (f *fakeAPI) DescribeLogStreams(_ context.Context, in *cloudwatchlogs.DescribeLogStreamsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	f.describes = append(f.describes, in)
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	i := len(f.describes) - 1
	if i >= len(f.pages) {
		return &cloudwatchlogs.DescribeLogStreamsOutput{}, nil
	}
	return f.pages[i], nil
}

func (f *fakeAPI) CreateLogStream(_ context.Context, in *cloudwatchlogs.CreateLogStreamInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	f.creates = append(f.creates, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeAPI) PutLogEvents(_ context.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.putOut != nil {
		return f.putOut, nil
	}
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func streamPage(next string, names ...string) *cloudwatchlogs.DescribeLogStreamsOutput {
	out := &cloudwatchlogs.DescribeLogStreamsOutput{}
	for _, n := range names {
		out.LogStreams = append(out.LogStreams, types.LogStream{
			LogStreamName:       aws.String(n),
			UploadSequenceToken: aws.String("tok-" + n),
		})
	}
	if next != "" {
		out.NextToken = aws.String(next)
	}
	return out
}

func TestFindStream_ExactMatchAcrossPages(t *testing.T) {
	api := &fakeAPI{pages: []*cloudwatchlogs.DescribeLogStreamsOutput{
		streamPage("p2", "app-old", "app-staging"),
		streamPage("", "app"),
	}}
	c := NewClient(api, log.NewNoopLogger())

	info, err := c.FindStream(context.Background(), "group", "app")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "app", info.Name)
	assert.Equal(t, "tok-app", aws.ToString(info.UploadSequenceToken))

	require.Len(t, api.describes, 2)
	assert.Equal(t, "app", aws.ToString(api.describes[0].LogStreamNamePrefix))
	assert.Equal(t, "group", aws.ToString(api.describes[0].LogGroupName))
	assert.Equal(t, "p2", aws.ToString(api.describes[1].NextToken))
}

func TestFindStream_PrefixOnlyIsNotAMatch(t *testing.T) {
	api := &fakeAPI{pages: []*cloudwatchlogs.DescribeLogStreamsOutput{
		streamPage("", "app-old"),
	}}

	info, err := NewClient(api, log.NewNoopLogger()).FindStream(context.Background(), "group", "app")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestFindStream_MissingGroup(t *testing.T) {
	api := &fakeAPI{describeErr: &types.ResourceNotFoundException{Message: aws.String("group missing")}}

	_, err := NewClient(api, log.NewNoopLogger()).FindStream(context.Background(), "group", "app")
	assert.ErrorIs(t, err, domain.ErrStreamNotFound)
}

func TestCreateStream(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api, log.NewNoopLogger())

	require.NoError(t, c.CreateStream(context.Background(), "group", "app"))
	require.Len(t, api.creates, 1)
	assert.Equal(t, "app", aws.ToString(api.creates[0].LogStreamName))

	api.createErr = &types.ResourceAlreadyExistsException{Message: aws.String("exists")}
	err := c.CreateStream(context.Background(), "group", "app")
	assert.ErrorIs(t, err, domain.ErrStreamAlreadyExists)
}

func TestPutBatch(t *testing.T) {
	api := &fakeAPI{putOut: &cloudwatchlogs.PutLogEventsOutput{NextSequenceToken: aws.String("next")}}
	c := NewClient(api, log.NewNoopLogger())

	records := []domain.Record{{Timestamp: 1, Message: "a"}, {Timestamp: 2, Message: "b"}}
	next, err := c.PutBatch(context.Background(), "group", "app", records, aws.String("prev"))
	require.NoError(t, err)
	assert.Equal(t, "next", aws.ToString(next))

	require.Len(t, api.puts, 1)
	in := api.puts[0]
	assert.Equal(t, "prev", aws.ToString(in.SequenceToken))
	require.Len(t, in.LogEvents, 2)
	assert.Equal(t, "b", aws.ToString(in.LogEvents[1].Message))
	assert.Equal(t, int64(2), aws.ToInt64(in.LogEvents[1].Timestamp))
}

func TestPutBatch_NilTokenOmitted(t *testing.T) {
	api := &fakeAPI{}
	_, err := NewClient(api, log.NewNoopLogger()).PutBatch(context.Background(), "g", "s", []domain.Record{{Message: "x"}}, nil)
	require.NoError(t, err)
	assert.Nil(t, api.puts[0].SequenceToken)
}

func TestTranslate(t *testing.T) {
	t.Run("invalid sequence token", func(t *testing.T) {
		err := translate(&types.InvalidSequenceTokenException{
			Message:               aws.String("The given sequenceToken is invalid. The next expected sequenceToken is: 123"),
			ExpectedSequenceToken: aws.String("123"),
		})
		assert.ErrorIs(t, err, domain.ErrStaleSequenceToken)

		var tokErr *domain.SequenceTokenError
		require.True(t, errors.As(err, &tokErr))
		tok, ok := tokErr.CorrectedToken()
		require.True(t, ok)
		assert.Equal(t, "123", *tok)
	})

	t.Run("data already accepted", func(t *testing.T) {
		err := translate(&types.DataAlreadyAcceptedException{Message: aws.String("accepted: 9")})
		assert.ErrorIs(t, err, domain.ErrDataAlreadyAccepted)
	})

	t.Run("generic api error code", func(t *testing.T) {
		err := translate(&smithy.GenericAPIError{
			Code:    "InvalidSequenceTokenException",
			Message: "The next expected sequenceToken is: null",
		})
		var tokErr *domain.SequenceTokenError
		require.True(t, errors.As(err, &tokErr))
		tok, ok := tokErr.CorrectedToken()
		assert.True(t, ok)
		assert.Nil(t, tok)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		base := errors.New("network down")
		assert.Same(t, base, translate(base))
	})
}
