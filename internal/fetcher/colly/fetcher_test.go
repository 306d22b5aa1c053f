package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/board-crawler/internal/board"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html>hello %s</html>", r.UserAgent())
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"URLS":{"K":{"BASE":"board.example.com","TOKYO":"/list"}}}`)
	})
	mux.HandleFunc("/broken-json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{not json`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchText(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{UserAgent: "board-test-agent"}, zap.NewNop())

	body, err := f.FetchText(context.Background(), srv.URL+"/page", "List p=1")
	require.NoError(t, err)
	assert.Equal(t, "<html>hello board-test-agent</html>", body)

	// Revisiting the same URL must fetch again.
	again, err := f.FetchText(context.Background(), srv.URL+"/page", "List p=1")
	require.NoError(t, err)
	assert.Equal(t, body, again)
}

func TestFetchTextStatusError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{}, nil)

	_, err := f.FetchText(context.Background(), srv.URL+"/missing", "Thread 3")
	require.Error(t, err)
	var fe *board.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Equal(t, "Thread 3", fe.Label)
	assert.Equal(t, "HTTP 404 @ Thread 3", err.Error())
}

func TestFetchTextNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/gone"
	srv.Close()

	f := New(Config{Timeout: time.Second}, zap.NewNop())
	_, err := f.FetchText(context.Background(), url, "List p=2")
	require.Error(t, err)
	var fe *board.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
	assert.Equal(t, url, fe.URL)
}

func TestFetchTextCanceled(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{}, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.FetchText(ctx, srv.URL+"/slow", "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchJSON(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	f := New(Config{}, zap.NewNop())

	var payload board.Bootstrap
	require.NoError(t, f.FetchJSON(context.Background(), srv.URL+"/json", "1st API", &payload))
	assert.Equal(t, "board.example.com", payload.URLs.K.Base)

	err := f.FetchJSON(context.Background(), srv.URL+"/broken-json", "1st API", &payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode 1st API")

	err = f.FetchJSON(context.Background(), srv.URL+"/missing", "1st API", &payload)
	assert.EqualError(t, err, "HTTP 404 @ 1st API")
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, zap.NewNop())
	var result fetchResult
	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, &result)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	body := []byte("body")
	hooks.onResponse(&colly.Response{StatusCode: http.StatusOK, Body: body})
	body[0] = 'B'
	assert.Equal(t, http.StatusOK, result.statusCode)
	assert.Equal(t, "body", string(result.body))

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("boom"))
	assert.Equal(t, http.StatusBadGateway, result.statusCode)
	assert.EqualError(t, result.err, "boom")
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
