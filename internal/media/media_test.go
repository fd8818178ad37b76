package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakeS3) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/" + aws.ToString(input.Key)}, nil
}

func TestValidateImageName(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp"} {
		assert.NoError(t, ValidateImageName(name), name)
	}
	for _, name := range []string{"a.gif", "b", "c.png.exe", "d.svg"} {
		assert.ErrorIs(t, ValidateImageName(name), ErrUnsupportedType, name)
	}
}

func TestS3UploaderUpload(t *testing.T) {
	api := &fakeS3{}
	u := &S3Uploader{uploader: api, bucket: "media", folder: "qayyim"}

	url, err := u.Upload(context.Background(), "Shirt.PNG", "image/png", strings.NewReader("img"))
	require.NoError(t, err)

	assert.Equal(t, "media", aws.ToString(api.input.Bucket))
	key := aws.ToString(api.input.Key)
	assert.True(t, strings.HasPrefix(key, "qayyim/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "image/png", aws.ToString(api.input.ContentType))
	assert.Equal(t, "https://bucket.s3.amazonaws.com/"+key, url)
}

func TestS3UploaderRejects(t *testing.T) {
	api := &fakeS3{}
	u := &S3Uploader{uploader: api, bucket: "media", folder: "qayyim"}

	_, err := u.Upload(context.Background(), "doc.pdf", "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Nil(t, api.input)

	api.err = errors.New("access denied")
	_, err = u.Upload(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x"))
	assert.ErrorContains(t, err, "access denied")
}
