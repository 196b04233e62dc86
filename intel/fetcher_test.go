package intel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betamax-recon/config"
)

func newTestFetcher(baseURL string, timeout time.Duration) *Fetcher {
	cfg := config.Config{
		StoreBaseURL: baseURL,
		UserAgent:    config.DefaultUserAgent,
		IntelTimeout: timeout,
	}
	return NewFetcher(cfg, nil)
}

func TestListingURL(t *testing.T) {
	f := newTestFetcher("https://play.google.com/", time.Second)
	assert.Equal(t,
		"https://play.google.com/store/apps/details?id=com.betamax.core&hl=en_US&gl=US",
		f.ListingURL("com.betamax.core"))
}

func TestFetchIntelFound(t *testing.T) {
	seen := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div><h2>What's New</h2><div>Offline missions.</div></div></body></html>`))
	}))
	defer srv.Close()

	res := newTestFetcher(srv.URL, time.Second).FetchIntel(context.Background(), "com.example.app")

	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "Offline missions.", res.String())
	req := <-seen
	assert.Equal(t, config.DefaultUserAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, "com.example.app", req.URL.Query().Get("id"))
	assert.Equal(t, "en_US", req.URL.Query().Get("hl"))
	assert.Equal(t, "US", req.URL.Query().Get("gl"))
}

func TestFetchIntelRevisitsSameListing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<div><h2>What's New</h2>x</div>`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, time.Second)
	f.FetchIntel(context.Background(), "com.example.app")
	f.FetchIntel(context.Background(), "com.example.app")
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchIntelNeverEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		outcome Outcome
		prefix  string
	}{
		{
			name: "not found status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			outcome: OutcomeFailed,
			prefix:  "Connection failed: ",
		},
		{
			name:    "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			outcome: OutcomeMissing,
			prefix:  IntelUnavailable,
		},
		{
			name: "heading without text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<section><h2>What's New</h2></section>`))
			},
			outcome: OutcomeEmpty,
			prefix:  EncryptedSignal,
		},
		{
			name: "slow server",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
				_, _ = w.Write([]byte(`<h2>What's New</h2>`))
			},
			outcome: OutcomeFailed,
			prefix:  "Connection failed: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			res := newTestFetcher(srv.URL, 50*time.Millisecond).FetchIntel(context.Background(), "com.example.app")
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.NotEmpty(t, res.String())
			assert.True(t, strings.HasPrefix(res.String(), tt.prefix), res.String())
		})
	}
}

func TestFetchIntelConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	res := newTestFetcher(base, time.Second).FetchIntel(context.Background(), "com.example.app")
	assert.Equal(t, OutcomeFailed, res.Outcome)
	require.Error(t, res.Err)
	assert.Contains(t, res.String(), "Connection failed: ")
}

func TestFetchIntelCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestFetcher("http://127.0.0.1:1", time.Second).FetchIntel(ctx, "com.example.app")
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(io.Reader) (string, bool, error) {
	panic("selector exploded")
}

func TestFetchIntelRecoversFromExtractorPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<h2>What's New</h2>`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, time.Second)
	f.Extractor = panickingExtractor{}

	var res Result
	require.NotPanics(t, func() {
		res = f.FetchIntel(context.Background(), "com.example.app")
	})
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, "Connection failed: selector exploded", res.String())
}
