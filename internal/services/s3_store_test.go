package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/bookswap-backend/internal/config"
)

type mockS3 struct {
	s3iface.S3API
	mock.Mock
}

func (m *mockS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	args := m.Called(in)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObjectWithContext(ctx aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	args := m.Called(in)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func TestS3Store_Save(t *testing.T) {
	client := new(mockS3)
	store := NewS3Store(client, config.AWSConfig{S3Bucket: "bookswap", Region: "eu-west-1"})

	client.On("PutObjectWithContext", mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.StringValue(in.Bucket) == "bookswap" &&
			strings.HasPrefix(aws.StringValue(in.Key), "books/") &&
			aws.StringValue(in.ContentType) == "image/png"
	})).Return(nil).Once()

	locator, err := store.Save(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "https://bookswap.s3.eu-west-1.amazonaws.com/"+locator, store.URL(locator))
	client.AssertExpectations(t)
}

func TestS3Store_Errors(t *testing.T) {
	client := new(mockS3)
	store := NewS3Store(client, config.AWSConfig{S3Bucket: "bookswap", CloudFrontURL: "https://cdn.example.com/"})
	boom := errors.New("AccessDenied")

	client.On("PutObjectWithContext", mock.Anything).Return(boom)
	client.On("DeleteObjectWithContext", mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.StringValue(in.Key) == "books/a.jpg"
	})).Return(boom)

	_, err := store.Save(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.Remove(context.Background(), "books/a.jpg"), boom)
	assert.Equal(t, "https://cdn.example.com/books/a.jpg", store.URL("books/a.jpg"))
}
