package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		Endpoint:        srv.URL + "/json/",
		VisitorEndpoint: srv.URL + "/%s/json/",
		Timeout:         time.Second,
	})
}

func TestLookup_Success(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"81.182.0.1","city":"Budapest","country_code":"hu","country_name":"Hungary","timezone":"Europe/Budapest"}`))
	})

	loc, err := c.Lookup(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/json/", gotPath)
	assert.Equal(t, "HU", loc.CountryCode)
	assert.Equal(t, "Budapest", loc.City)
	assert.Equal(t, "Europe/Budapest", loc.Timezone)
}

func TestLookup_VisitorIP(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"ip":"8.8.8.8","country_code":"US"}`))
	})

	code, err := c.ForIP("8.8.8.8").CountryCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "US", code)
	assert.Equal(t, "/8.8.8.8/json/", gotPath)
}

func TestLookup_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"country_code":`))
			},
		},
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":true,"reason":"Reserved IP Address"}`))
			},
		},
		{
			name: "empty country",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"ip":"10.0.0.1","country_code":""}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Lookup(context.Background(), "")
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestLookup_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := NewClient(Options{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLookup_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(Options{Endpoint: srv.URL})
	_, err := c.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestURL(t *testing.T) {
	c := NewClient(Options{})
	assert.Equal(t, "https://ipapi.co/json/", c.URL(""))
	assert.Equal(t, "https://ipapi.co/2001:db8::1/json/", c.URL("2001:db8::1"))
}
