package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetsHeaders(t *testing.T) {
	var ua, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(nil, Config{})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, UserAgent, ua)
	assert.Equal(t, "application/json", accept)
}

func TestTimeoutAppliedToClone(t *testing.T) {
	base := &http.Client{}
	c := NewClient(base, Config{Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, c.client.Timeout)
	assert.Zero(t, base.Timeout, "caller's client must not be mutated")
}

func TestCancelledContextStopsBeforeRequest(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	// A burst of one at a very low rate: the second request has to wait.
	c := NewClient(nil, Config{RequestsPerSecond: 0.001})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, srv.URL)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
