package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUpload_ReturnsPublicURL(t *testing.T) {
	api := &fakePutter{}
	st := newStorage(api, "branding", "https://cdn.example.com/")

	url, err := st.Upload(context.Background(), "/partner-1/favicon-1.png", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.example.com/partner-1/favicon-1.png" {
		t.Errorf("url = %q", url)
	}
	if aws.ToString(api.in.Bucket) != "branding" {
		t.Errorf("bucket = %q", aws.ToString(api.in.Bucket))
	}
	if aws.ToString(api.in.Key) != "partner-1/favicon-1.png" {
		t.Errorf("key = %q", aws.ToString(api.in.Key))
	}
	if aws.ToString(api.in.ContentType) != "image/png" {
		t.Errorf("content type = %q", aws.ToString(api.in.ContentType))
	}
	if aws.ToInt64(api.in.ContentLength) != int64(len("png-bytes")) {
		t.Errorf("content length = %d", aws.ToInt64(api.in.ContentLength))
	}
	if string(api.body) != "png-bytes" {
		t.Errorf("body = %q", api.body)
	}
}

func TestUpload_PropagatesError(t *testing.T) {
	api := &fakePutter{err: errors.New("access denied")}
	st := newStorage(api, "branding", "https://cdn.example.com")

	url, err := st.Upload(context.Background(), "k.png", []byte("x"), "image/png")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if url != "" {
		t.Errorf("expected empty url, got %q", url)
	}
}

func TestPublicBase(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit public url", Config{Bucket: "b", PublicURL: "https://cdn.example.com"}, "https://cdn.example.com"},
		{"custom endpoint", Config{Bucket: "b", Endpoint: "http://minio:9000/"}, "http://minio:9000/b"},
		{"aws virtual host", Config{Bucket: "b"}, "https://b.s3.eu-central-1.amazonaws.com"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := publicBase(tc.cfg, "eu-central-1"); got != tc.want {
				t.Errorf("publicBase() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNew_WithStaticCredentials(t *testing.T) {
	st, err := New(context.Background(), Config{
		Bucket:       "branding",
		Endpoint:     "http://127.0.0.1:9000",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UsePathStyle: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.baseURL != "http://127.0.0.1:9000/branding" {
		t.Errorf("baseURL = %q", st.baseURL)
	}
}
