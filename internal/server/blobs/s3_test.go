package blobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectAPI struct {
	puts      []*s3.PutObjectInput
	bodies    [][]byte
	deletes   []*s3.DeleteObjectInput
	putErr    error
	deleteErr error
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func stubS3(t *testing.T, api objectAPI) *s3.Options {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "admin", creds.AccessKeyID)
		assert.Equal(t, "secret", creds.SecretAccessKey)
		return aws.Config{}, nil
	}

	captured := &s3.Options{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		for _, fn := range optFns {
			fn(captured)
		}
		return api
	}
	return captured
}

func newTestS3(t *testing.T, api objectAPI) (*S3Storage, *s3.Options) {
	t.Helper()
	opts := stubS3(t, api)
	s, err := NewS3Storage(context.Background(), S3Options{
		AccessKey: "admin",
		SecretKey: "secret",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000/",
		Bucket:    "paaster",
	})
	require.NoError(t, err)
	return s, opts
}

func TestNewS3Storage_AppliesOptions(t *testing.T) {
	_, opts := newTestS3(t, &fakeObjectAPI{})

	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Storage_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Storage(context.Background(), S3Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config")
}

func TestS3Storage_PutAndDelete(t *testing.T) {
	api := &fakeObjectAPI{}
	s, _ := newTestS3(t, api)
	ctx := context.Background()

	url, err := s.Put(ctx, "paaster/encrypted/abc123.bin", []byte{1, 2, 3}, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/paaster/paaster/encrypted/abc123.bin", url)

	require.Len(t, api.puts, 1)
	in := api.puts[0]
	assert.Equal(t, "paaster", aws.ToString(in.Bucket))
	assert.Equal(t, "paaster/encrypted/abc123.bin", aws.ToString(in.Key))
	assert.Equal(t, "public, max-age=600", aws.ToString(in.CacheControl))
	assert.Equal(t, int64(3), aws.ToInt64(in.ContentLength))
	assert.Equal(t, []byte{1, 2, 3}, api.bodies[0])

	require.NoError(t, s.Delete(ctx, url))
	require.Len(t, api.deletes, 1)
	assert.Equal(t, "paaster/encrypted/abc123.bin", aws.ToString(api.deletes[0].Key))
}

func TestS3Storage_Errors(t *testing.T) {
	api := &fakeObjectAPI{putErr: errors.New("access denied"), deleteErr: errors.New("gone away")}
	s, _ := newTestS3(t, api)
	ctx := context.Background()

	_, err := s.Put(ctx, "a/b.bin", []byte("x"), time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	_, err = s.Put(ctx, "../escape.bin", []byte("x"), time.Hour)
	require.Error(t, err)

	err = s.Delete(ctx, "http://127.0.0.1:9000/paaster/a/b.bin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone away")

	err = s.Delete(ctx, "https://elsewhere.example/paaster/a/b.bin")
	assert.ErrorIs(t, err, ErrForeignURL)
}
