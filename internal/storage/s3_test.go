package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, h http.HandlerFunc) *S3Storage {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	s, err := NewS3Storage(S3Config{
		Endpoint:        srv.URL,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		Bucket:          "fixtures",
		Region:          "us-east-1",
	})
	require.NoError(t, err)
	return s
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(S3Config{Endpoint: "http://localhost:9000"})
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/fixtures/mock/analysis.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"followerCount":7}`))
	})

	body, err := s.Get(context.Background(), "mock/analysis.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"followerCount":7}`, string(body))
}

func TestGet_NoSuchKey(t *testing.T) {
	s := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>missing.json</Key></Error>`))
	})

	_, err := s.Get(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
