package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/skillswap/skillswap-api/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	failures int
	calls    int
	lastKey  string
	lastBody string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("503 slow down")
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.lastKey = aws.ToString(params.Key)
	f.lastBody = string(body)
	return &s3.PutObjectOutput{}, nil
}

func testClient(fake *fakeS3) *Client {
	cfg := retry.StorageConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	return &Client{s3: fake, bucketName: "exchanges", retry: cfg}
}

func TestPutJSON_Uploads(t *testing.T) {
	fake := &fakeS3{}
	c := testClient(fake)

	err := c.PutJSON(context.Background(), "exchanges/2026/10/abc.json", map[string]string{"status": "completed"})
	require.NoError(t, err)

	assert.Equal(t, "exchanges/2026/10/abc.json", fake.lastKey)
	assert.JSONEq(t, `{"status":"completed"}`, fake.lastBody)
}

func TestPutJSON_RetriesTransientFailures(t *testing.T) {
	fake := &fakeS3{failures: 2}
	c := testClient(fake)

	require.NoError(t, c.PutJSON(context.Background(), "k.json", 1))
	assert.Equal(t, 3, fake.calls)
}

func TestPutJSON_EncodeError(t *testing.T) {
	fake := &fakeS3{}
	c := testClient(fake)

	err := c.PutJSON(context.Background(), "k.json", make(chan int))
	assert.Error(t, err)
	assert.Zero(t, fake.calls)
}

func TestNewClient_RequiresBucket(t *testing.T) {
	_, err := NewClient(Config{AccessKeyID: "a", SecretAccessKey: "b"})
	assert.Error(t, err)
}
