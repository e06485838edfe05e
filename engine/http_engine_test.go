package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><a href="/story">Story</a><a href="/missing">Missing</a></body></html>`)
	})
	mux.HandleFunc("/story", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1 class="qa-story-headline">Headline</h1><div class="qa-story-body">Body text</div></body></html>`)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/story", http.StatusFound)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPBrowser_OpenAndQuery(t *testing.T) {
	srv := newSiteServer(t)
	b := NewHTTPBrowser("", "")
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Open(ctx, srv.URL+"/"))
	links, err := b.FindAll(ctx, "a[href]", "href")
	require.NoError(t, err)
	assert.Equal(t, []Element{{Text: "Story", Attr: "/story"}, {Text: "Missing", Attr: "/missing"}}, links)

	require.NoError(t, b.Open(ctx, srv.URL+"/story"))
	assert.Equal(t, srv.URL+"/story", b.URL())
	title, err := b.FindOne(ctx, "h1[class*='qa-story-headline']", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Headline", title.Text)
}

func TestHTTPBrowser_OpenFailureClearsPage(t *testing.T) {
	srv := newSiteServer(t)
	b := NewHTTPBrowser("test-agent", "")
	ctx := context.Background()

	require.NoError(t, b.Open(ctx, srv.URL+"/story"))

	err := b.Open(ctx, srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")

	_, err = b.FindOne(ctx, "h1", time.Second)
	assert.Error(t, err, "stale document must not be queried")

	assert.Error(t, b.Open(ctx, srv.URL+"/json"), "non-html content is rejected")
	err = b.Open(ctx, "mailto:desk@example.com")
	assert.ErrorIs(t, err, ErrNotNavigable)
	assert.Empty(t, b.URL())
}

func TestHTTPBrowser_URLFollowsRedirects(t *testing.T) {
	srv := newSiteServer(t)
	b := NewHTTPBrowser("", "")

	require.NoError(t, b.Open(context.Background(), srv.URL+"/moved"))

	assert.Equal(t, srv.URL+"/story", b.URL())
}

func TestHTTPBrowser_ProxyDropsChromeFingerprint(t *testing.T) {
	assert.True(t, NewHTTPBrowser("", "").ChromeFingerprint())
	assert.False(t, NewHTTPBrowser("", "http://127.0.0.1:3128").ChromeFingerprint())
	assert.True(t, NewHTTPBrowser("", "socks5://127.0.0.1:1080").ChromeFingerprint(), "unsupported proxies are ignored")
}

func TestHTTPBrowser_FindOneNotFound(t *testing.T) {
	srv := newSiteServer(t)
	b := NewHTTPBrowser("", "")
	ctx := context.Background()

	require.NoError(t, b.Open(ctx, srv.URL+"/"))
	_, err := b.FindOne(ctx, "h1", 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotFound)
}
