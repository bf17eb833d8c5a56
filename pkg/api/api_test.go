package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlor/pelmanism/pkg/api"
	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/queue"
)

func testServer(t *testing.T, results queue.Queue) *httptest.Server {
	t.Helper()
	m, err := board.NewMonitor(board.NewMonitorOptions{
		Definition: &board.Definition{
			Height: 2,
			Width:  2,
			Values: []string{"A", "B", "B", "A"},
		},
		AcquireTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	server := httptest.NewServer(api.NewRouter(api.NewAPIServerOptions{
		Monitor:     m,
		ResultQueue: results,
	}))
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func post(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestLookEndpoint(t *testing.T) {
	server := testServer(t, nil)

	status, body := get(t, server.URL+"/look/alice")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2x2\ndown\ndown\ndown\ndown\n", body)
}

func TestFlipEndpoint(t *testing.T) {
	server := testServer(t, nil)

	status, body := post(t, server.URL+"/flip/alice/0,0")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2x2\nmy A\ndown\ndown\ndown\n", body)

	// Another player sees the same card face up but not owned.
	status, body = get(t, server.URL+"/look/bob")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2x2\nup A\ndown\ndown\ndown\n", body)
}

func TestFlipEndpointErrors(t *testing.T) {
	server := testServer(t, nil)

	tests := []struct {
		name       string
		path       string
		method     string
		wantStatus int
	}{
		{
			name:       "out of bounds",
			path:       "/flip/alice/5,5",
			method:     http.MethodPost,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed coordinates miss the route",
			path:       "/flip/alice/x,y",
			method:     http.MethodPost,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed player id",
			path:       "/look/bad%20id",
			method:     http.MethodGet,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var status int
			if tt.method == http.MethodPost {
				status, _ = post(t, server.URL+tt.path)
			} else {
				status, _ = get(t, server.URL+tt.path)
			}
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestFlipEndpointContestedTimesOut(t *testing.T) {
	server := testServer(t, nil)

	status, _ := post(t, server.URL+"/flip/alice/0,0")
	require.Equal(t, http.StatusOK, status)

	status, _ = post(t, server.URL+"/flip/bob/0,0")
	assert.Equal(t, http.StatusRequestTimeout, status)
}

func TestMapEndpoint(t *testing.T) {
	server := testServer(t, nil)

	status, body := post(t, server.URL+"/map/alice/lower")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2x2\ndown\ndown\ndown\ndown\n", body)

	status, body = post(t, server.URL+"/flip/alice/0,0")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2x2\nmy a\ndown\ndown\ndown\n", body)

	status, _ = post(t, server.URL+"/map/alice/nope")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWatchEndpointResolvesOnFlip(t *testing.T) {
	server := testServer(t, nil)

	type result struct {
		status int
		body   string
	}
	done := make(chan result, 1)
	go func() {
		status, body := get(t, server.URL+"/watch/bob")
		done <- result{status: status, body: body}
	}()

	// Give the watch request time to register before mutating.
	time.Sleep(100 * time.Millisecond)
	status, _ := post(t, server.URL+"/flip/alice/0,0")
	require.Equal(t, http.StatusOK, status)

	select {
	case res := <-done:
		assert.Equal(t, http.StatusOK, res.status)
		assert.True(t, strings.Contains(res.body, "up A"), "watch snapshot %q", res.body)
	case <-time.After(2 * time.Second):
		t.Fatal("watch request did not resolve")
	}
}

func TestEndpointsRecordResults(t *testing.T) {
	results := queue.NewInMemoryQueue(100)
	server := testServer(t, results)

	status, _ := get(t, server.URL+"/look/alice")
	require.Equal(t, http.StatusOK, status)
	status, _ = post(t, server.URL+"/flip/alice/0,0")
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, 2, results.Size())
}
