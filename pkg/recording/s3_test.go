package recording

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// fakeS3 records puts in memory and serves gets from them.
type fakeS3 struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3PutOpen(t *testing.T) {
	fake := &fakeS3{}
	store := NewS3(fake, "bucket", "recordings")
	ctx := context.Background()

	w, err := store.Put(ctx, "CA1.wav")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	w.Write([]byte("audio"))
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := fake.objects["recordings/CA1.wav"]; !ok {
		t.Fatalf("object not stored under prefix, have %v", fake.objects)
	}

	r, err := store.Open(ctx, "CA1.wav")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "audio" {
		t.Errorf("data = %q", data)
	}
}

func TestS3OpenMissing(t *testing.T) {
	store := NewS3(&fakeS3{}, "bucket", "")
	if _, err := store.Open(context.Background(), "nope.wav"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestS3PutError(t *testing.T) {
	store := NewS3(&fakeS3{putErr: errors.New("denied")}, "bucket", "")
	w, err := store.Put(context.Background(), "CA2.wav")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	w.Write([]byte("audio"))
	if err := w.Close(); err == nil {
		t.Fatal("want upload error from Close")
	}
}
