package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/myflix/internal/common"
)

const posterBucket = "movie-posters"

type stubObject struct {
	data        []byte
	contentType string
	status      int // non-zero forces an error status
}

// newS3Stub serves just enough of the S3 API for bucket checks and object reads.
func newS3Stub(t *testing.T, objects map[string]stubObject) *MinioStore {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["location"]; ok {
			w.Header().Set("Content-Type", "application/xml")
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
			return
		}

		bucket, key, _ := strings.Cut(strings.Trim(r.URL.Path, "/"), "/")
		if bucket != posterBucket {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if key == "" {
			w.WriteHeader(http.StatusOK)
			return
		}

		obj, ok := objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if obj.status != 0 {
			w.WriteHeader(obj.status)
			return
		}

		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(obj.data)
		}
	}))
	t.Cleanup(srv.Close)

	s, err := NewMinioStore(context.Background(), strings.TrimPrefix(srv.URL, "http://"),
		"access", "secret-key", posterBucket, false)
	require.NoError(t, err)
	return s
}

func TestMinioStore_Open(t *testing.T) {
	s := newS3Stub(t, map[string]stubObject{
		"posters/alien.jpg":  {data: []byte("\xff\xd8jpeg-bytes"), contentType: "image/jpeg"},
		"posters/locked.jpg": {status: http.StatusForbidden},
	})
	ctx := context.Background()

	t.Run("existing object", func(t *testing.T) {
		obj, err := s.Open(ctx, "posters/alien.jpg")
		require.NoError(t, err)
		defer obj.Close()

		assert.Equal(t, "image/jpeg", obj.ContentType)
		assert.Equal(t, int64(len("\xff\xd8jpeg-bytes")), obj.Size)
		body, err := io.ReadAll(obj)
		require.NoError(t, err)
		assert.Equal(t, "\xff\xd8jpeg-bytes", string(body))
	})

	t.Run("missing key is not found", func(t *testing.T) {
		_, err := s.Open(ctx, "posters/nope.jpg")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("other failures are wrapped", func(t *testing.T) {
		_, err := s.Open(ctx, "posters/locked.jpg")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrNotFound)
	})
}
