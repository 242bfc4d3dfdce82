package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"opsdesk/internal/config"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"handbook.pdf", "handbook.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\docs\Leave Policy 2026.pdf`, "Leave_Policy_2026.pdf"},
		{"..", "file"},
		{"", "file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

func TestPolicyKey(t *testing.T) {
	assert.Equal(t, "policies/hr/abc/Code_of_Conduct.pdf", PolicyKey("hr", "abc", "Code of Conduct.pdf"))
	assert.Equal(t, "policies/file/abc/x.pdf", PolicyKey("", "abc", "x.pdf"))
}

func TestNewMinIO_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{"missing endpoint", config.MinIOConfig{}, "endpoint is required"},
		{"missing credentials", config.MinIOConfig{Endpoint: "localhost:9000"}, "credentials are required"},
		{"missing bucket", config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, "bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(context.Background(), tt.cfg, nil)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// fakeS3 answers the handful of S3 calls minioStorage makes, path-style.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	if len(parts) == 1 || parts[1] == "" {
		switch r.Method {
		case http.MethodHead:
			if !f.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		case http.MethodPut:
			f.buckets[bucket] = true
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	body, ok := f.objects[bucket+"/"+parts[1]]
	if !ok {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != http.MethodHead {
			_, _ = io.WriteString(w, "<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>")
		}
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("ETag", `"etag-1"`)
	w.Header().Set("Last-Modified", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = io.WriteString(w, body)
	}
}

func newFakeMinIO(t *testing.T, f *fakeS3, log *zap.Logger) Storage {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	s, err := NewMinIO(context.Background(), config.MinIOConfig{
		Endpoint:  u.Host,
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "policies",
		Region:    "us-east-1",
	}, log)
	require.NoError(t, err)
	return s
}

func TestNewMinIO_CreatesMissingBucket(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := &fakeS3{buckets: map[string]bool{}, objects: map[string]string{}}

	s := newFakeMinIO(t, f, zap.New(core))

	assert.True(t, f.buckets["policies"])
	assert.Equal(t, 1, logs.FilterMessage("storage_bucket_created").Len())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestMinIO_Get(t *testing.T) {
	f := &fakeS3{
		buckets: map[string]bool{"policies": true},
		objects: map[string]string{"policies/policies/hr/abc/handbook.pdf": "hello"},
	}
	s := newFakeMinIO(t, f, nil)
	ctx := context.Background()

	t.Run("streams content with info", func(t *testing.T) {
		rc, info, err := s.Get(ctx, "policies/hr/abc/handbook.pdf")
		require.NoError(t, err)
		defer rc.Close()

		assert.Equal(t, int64(5), info.Size)
		assert.Equal(t, "application/pdf", info.ContentType)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(b))
	})

	t.Run("missing key", func(t *testing.T) {
		rc, _, err := s.Get(ctx, "policies/hr/abc/gone.pdf")
		assert.Nil(t, rc)
		assert.True(t, errors.Is(err, ErrObjectNotFound), "got %v", err)
	})
}

func TestMinIO_PingMissingBucket(t *testing.T) {
	f := &fakeS3{buckets: map[string]bool{"policies": true}, objects: map[string]string{}}
	s := newFakeMinIO(t, f, nil)

	f.mu.Lock()
	delete(f.buckets, "policies")
	f.mu.Unlock()

	assert.ErrorContains(t, s.Ping(context.Background()), "does not exist")
}
