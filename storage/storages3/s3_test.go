package storages3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/overlap/types"
)

type fakeS3 struct {
	objects map[string][]byte
	ctypes  map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, ctypes: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.ctypes[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestStore_RoundTripWithPrefix(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := New(fake, "bucket", "runs/42")

	require.NoError(t, s.WriteFile(ctx, "report/CommonParagraphs.json", []byte("{}")))
	assert.Contains(t, fake.objects, "bucket/runs/42/report/CommonParagraphs.json")
	assert.Equal(t, "application/json", fake.ctypes["bucket/runs/42/report/CommonParagraphs.json"])

	data, err := s.ReadFile(ctx, "report/CommonParagraphs.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	ok, err := s.Exists(ctx, "report/CommonParagraphs.json")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "report/missing.json")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "s3://bucket/runs/42/a.docx", s.Location("a.docx"))
}

func TestStore_WriteFailureIsWriteError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	s := New(fake, "bucket", "")

	err := s.WriteFile(context.Background(), "a_compared.docx", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrWriteError)

	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "s3://bucket/a_compared.docx", e.Context["path"])
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	s := New(newFakeS3(), "bucket", "p")
	err := s.WriteFile(context.Background(), "../other/x", []byte("x"))
	assert.ErrorIs(t, err, types.ErrWriteError)
}
