package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsSlackPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewSender(srv.URL, 0).Send(context.Background(), "hello"))
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, true, got["unfurl_links"])
	assert.Equal(t, true, got["unfurl_media"])
}

func TestSendReportsNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewSender(srv.URL, 0).Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_payload")
}

func TestSendTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	require.Error(t, NewSender(srv.URL, 20*time.Millisecond).Send(context.Background(), "hello"))
}

func TestSendWithoutURL(t *testing.T) {
	t.Parallel()

	require.Error(t, NewSender("", 0).Send(context.Background(), "hello"))
}
