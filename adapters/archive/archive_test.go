package archive

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestFSArchive(t *testing.T) {
	assert := require.New(t)
	fs := afero.NewMemMapFs()

	_, err := NewFSArchive(slog.Default(), fs, "relative")
	assert.ErrorIs(err, errors.ErrMustBeAbsPath)

	a, err := NewFSArchive(slog.Default(), fs, "/archive")
	assert.NoError(err)

	ok, err := a.Exists(context.Background(), "a.xml")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(a.Store(context.Background(), "a.xml", []byte("<a/>")))
	ok, err = a.Exists(context.Background(), "a.xml")
	assert.NoError(err)
	assert.True(ok)
	data, err := afero.ReadFile(fs, "/archive/a.xml")
	assert.NoError(err)
	assert.Equal("<a/>", string(data))

	err = a.Store(context.Background(), "../a.xml", nil)
	assert.ErrorIs(err, errors.ErrUnsecureFileName)
}

// fakeS3 keeps objects put with path style requests
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		if strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
			data = decodeChunked(data)
		}
		s.objects[key] = data
		w.Header().Set("ETag", `"0123456789abcdef"`)
	case http.MethodHead:
		data, ok := s.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", `"0123456789abcdef"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Content-Type", "application/octet-stream")
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

// decodeChunked strips aws-chunked framing of streaming signed uploads
func decodeChunked(data []byte) []byte {
	out := []byte{}
	for len(data) > 0 {
		header, rest, ok := bytes.Cut(data, []byte("\r\n"))
		if !ok {
			break
		}
		sizeHex, _, _ := bytes.Cut(header, []byte(";"))
		size, err := strconv.ParseInt(string(sizeHex), 16, 64)
		if err != nil || size == 0 || int(size) > len(rest) {
			break
		}
		out = append(out, rest[:size]...)
		data = bytes.TrimPrefix(rest[size:], []byte("\r\n"))
	}
	return out
}

func TestS3Archive(t *testing.T) {
	assert := require.New(t)
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	a, err := NewS3Archive(slog.Default(), S3Options{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		Bucket:    "bank",
		Prefix:    "inbound",
		AccessKey: "key",
		SecretKey: "secret",
		Region:    "us-east-1",
	})
	assert.NoError(err)

	ok, err := a.Exists(context.Background(), "a.xml")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(a.Store(context.Background(), "a.xml", []byte("<a/>")))
	assert.Equal("<a/>", string(fake.objects["bank/inbound/a.xml"]))

	ok, err = a.Exists(context.Background(), "a.xml")
	assert.NoError(err)
	assert.True(ok)
}
