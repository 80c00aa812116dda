package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disciplinario/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *mockS3Client) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectsOutput), args.Error(1)
}

func (m *mockS3Client) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadBucketOutput), args.Error(1)
}

func (m *mockS3Client) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.CreateBucketOutput), args.Error(1)
}

func newTestS3Store(t *testing.T, client *mockS3Client) *S3BlobStore {
	t.Helper()
	store, err := NewS3BlobStore(&config.StorageConfig{
		Bucket:          "anexos",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
	}, WithLogger(zaptest.NewLogger(t)), withClient(client))
	require.NoError(t, err)
	return store
}

func TestNewS3BlobStore_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3BlobStore(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3BlobStore(&config.StorageConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half a key pair returns error", func(t *testing.T) {
		_, err := NewS3BlobStore(&config.StorageConfig{Bucket: "anexos", AccessKeyID: "only-id"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("default credential chain without keys", func(t *testing.T) {
		store, err := NewS3BlobStore(&config.StorageConfig{Bucket: "anexos", Region: "sa-east-1"})
		require.NoError(t, err)
		assert.Equal(t, "anexos", store.GetBucket())
		assert.Equal(t, "https://anexos.s3.sa-east-1.amazonaws.com/a/b.pdf", store.PublicURL("a/b.pdf"))
	})
}

func TestDefaultPublicBase(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/anexos", defaultPublicBase("http://localhost:9000", "us-east-1", "anexos", true))
	assert.Equal(t, "https://anexos.minio.local", defaultPublicBase("https://minio.local", "us-east-1", "anexos", false))
	assert.Equal(t, "https://anexos.s3.us-east-1.amazonaws.com", defaultPublicBase("", "us-east-1", "anexos", false))
}

func TestS3BlobStore_PublicURL(t *testing.T) {
	store, err := NewS3BlobStore(&config.StorageConfig{
		Bucket:        "anexos",
		PublicBaseURL: "https://cdn.empresa.co/storage/v1/object/public/anexos/",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"https://cdn.empresa.co/storage/v1/object/public/anexos/solicitud_1/foto%20final.jpg",
		store.PublicURL("solicitud_1/foto final.jpg"))
}

func TestS3BlobStore_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("puts the object and returns its url", func(t *testing.T) {
		client := new(mockS3Client)
		store := newTestS3Store(t, client)

		client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return aws.ToString(in.Bucket) == "anexos" &&
				aws.ToString(in.Key) == "solicitud_1/x.pdf" &&
				aws.ToString(in.ContentType) == "application/pdf" &&
				aws.ToInt64(in.ContentLength) == 4
		})).Return(&s3.PutObjectOutput{}, nil)

		url, err := store.Upload(ctx, "solicitud_1/x.pdf", strings.NewReader("%PDF"), 4, "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/anexos/solicitud_1/x.pdf", url)
		client.AssertExpectations(t)
	})

	t.Run("non seekable readers are buffered", func(t *testing.T) {
		client := new(mockS3Client)
		store := newTestS3Store(t, client)

		client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			_, seekable := in.Body.(io.Seeker)
			return seekable && aws.ToInt64(in.ContentLength) == 5
		})).Return(&s3.PutObjectOutput{}, nil)

		_, err := store.Upload(ctx, "solicitud_1/y.txt", io.NopCloser(strings.NewReader("hola!")), -1, "text/plain")
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("put failure", func(t *testing.T) {
		client := new(mockS3Client)
		store := newTestS3Store(t, client)

		client.On("PutObject", ctx, mock.Anything).Return(nil, errors.New("access denied"))

		_, err := store.Upload(ctx, "solicitud_1/x.pdf", strings.NewReader("%PDF"), 4, "application/pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})

	t.Run("empty key", func(t *testing.T) {
		store := newTestS3Store(t, new(mockS3Client))
		_, err := store.Upload(ctx, "", strings.NewReader(""), 0, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestS3BlobStore_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("batches keys", func(t *testing.T) {
		client := new(mockS3Client)
		store := newTestS3Store(t, client)

		paths := make([]string, maxDeleteBatch+1)
		for i := range paths {
			paths[i] = "solicitud_1/f" + strings.Repeat("x", i%5)
		}

		client.On("DeleteObjects", ctx, mock.MatchedBy(func(in *s3.DeleteObjectsInput) bool {
			return len(in.Delete.Objects) == maxDeleteBatch
		})).Return(&s3.DeleteObjectsOutput{}, nil).Once()
		client.On("DeleteObjects", ctx, mock.MatchedBy(func(in *s3.DeleteObjectsInput) bool {
			return len(in.Delete.Objects) == 1
		})).Return(&s3.DeleteObjectsOutput{}, nil).Once()

		require.NoError(t, store.Remove(ctx, paths))
		client.AssertExpectations(t)
	})

	t.Run("per key errors are reported", func(t *testing.T) {
		client := new(mockS3Client)
		store := newTestS3Store(t, client)

		client.On("DeleteObjects", ctx, mock.Anything).Return(&s3.DeleteObjectsOutput{
			Errors: []types.Error{{Key: aws.String("solicitud_1/a"), Message: aws.String("AccessDenied")}},
		}, nil)

		err := store.Remove(ctx, []string{"solicitud_1/a", "solicitud_1/b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "solicitud_1/a")
	})

	t.Run("nothing to remove", func(t *testing.T) {
		store := newTestS3Store(t, new(mockS3Client))
		assert.NoError(t, store.Remove(ctx, nil))
	})
}

func TestS3BlobStore_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("existing bucket", func(t *testing.T) {
		client := new(mockS3Client)
		store := newTestS3Store(t, client)
		client.On("HeadBucket", ctx, mock.Anything).Return(&s3.HeadBucketOutput{}, nil)

		require.NoError(t, store.EnsureBucket(ctx))
		client.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything)
	})

	t.Run("creates missing bucket", func(t *testing.T) {
		client := new(mockS3Client)
		store := newTestS3Store(t, client)
		client.On("HeadBucket", ctx, mock.Anything).Return(nil, &types.NotFound{})
		client.On("CreateBucket", ctx, mock.Anything).Return(&s3.CreateBucketOutput{}, nil)

		require.NoError(t, store.EnsureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("creation race is tolerated", func(t *testing.T) {
		client := new(mockS3Client)
		store := newTestS3Store(t, client)
		client.On("HeadBucket", ctx, mock.Anything).Return(nil, &types.NoSuchBucket{})
		client.On("CreateBucket", ctx, mock.Anything).Return(nil, &types.BucketAlreadyOwnedByYou{})

		require.NoError(t, store.EnsureBucket(ctx))
	})

	t.Run("other errors surface", func(t *testing.T) {
		client := new(mockS3Client)
		store := newTestS3Store(t, client)
		client.On("HeadBucket", ctx, mock.Anything).Return(nil, errors.New("forbidden"))

		require.Error(t, store.EnsureBucket(ctx))
	})
}
