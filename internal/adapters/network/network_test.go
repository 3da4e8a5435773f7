package network_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/adapters/network"
)

func redirectServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/middle", http.StatusFound)
	})
	mux.HandleFunc("/middle", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/no-head", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		http.Redirect(w, r, "/final", http.StatusSeeOther)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newRedirector() *network.HTTPRedirector {
	return network.NewHTTPRedirector(network.NewHTTPClient(2*time.Second), "phish-filter-test", zap.NewNop())
}

func TestRedirector_FollowsChain(t *testing.T) {
	srv := redirectServer(t)

	final, err := newRedirector().Resolve(context.Background(), srv.URL+"/start", 5)

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/final", final)
}

func TestRedirector_NoRedirect(t *testing.T) {
	srv := redirectServer(t)

	final, err := newRedirector().Resolve(context.Background(), srv.URL+"/final", 5)

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/final", final)
}

func TestRedirector_FallsBackToGet(t *testing.T) {
	srv := redirectServer(t)

	final, err := newRedirector().Resolve(context.Background(), srv.URL+"/no-head", 5)

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/final", final)
}

func TestRedirector_HopLimit(t *testing.T) {
	srv := redirectServer(t)

	_, err := newRedirector().Resolve(context.Background(), srv.URL+"/start", 1)
	assert.ErrorIs(t, err, network.ErrTooManyRedirects)

	_, err = newRedirector().Resolve(context.Background(), srv.URL+"/loop", 3)
	assert.ErrorIs(t, err, network.ErrTooManyRedirects)
}

func TestRedirector_ContextCancel(t *testing.T) {
	srv := redirectServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRedirector().Resolve(ctx, srv.URL+"/start", 5)
	assert.Error(t, err)
}

func TestResolver(t *testing.T) {
	offline := &net.Resolver{
		PreferGo: true,
		Dial: func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("network disabled")
		},
	}
	r := network.NewDNSResolver(offline, zap.NewNop())

	addrs, err := r.LookupHost(context.Background(), "192.0.2.7")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.7"}, addrs)

	_, err = r.LookupHost(context.Background(), "does-not-exist.example")
	assert.Error(t, err)
}

func TestRedirector_DoesNotCarryCookiesBetweenLookups(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tracked", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Cookie"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	redirector := newRedirector()
	_, err := redirector.Resolve(context.Background(), srv.URL+"/set", 5)
	require.NoError(t, err)
	_, err = redirector.Resolve(context.Background(), srv.URL+"/check", 5)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for _, cookie := range seen {
		assert.Empty(t, cookie)
	}
}
