package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBody caps how much of a response is parsed.
const maxBody = 10 << 20

// errNoPage is returned by queries issued before a successful Open.
var errNoPage = errors.New("http_engine: no page opened")

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec *tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = &spec
}

// HTTPBrowser drives static pages: it fetches HTML over HTTP with a Chrome
// TLS fingerprint and queries it with goquery. No JavaScript runs, so
// FindOne never waits.
type HTTPBrowser struct {
	client    *http.Client
	userAgent string

	current *Document
	pageURL string
}

// NewHTTPBrowser creates an HTTPBrowser. proxy may be empty; only http and
// https proxy URLs are honoured.
//
// net/http performs its own TLS handshake after a proxy CONNECT and never
// calls DialTLSContext, so a proxied browser uses Go's default TLS
// fingerprint. ChromeFingerprint reports which one is in effect.
func NewHTTPBrowser(userAgent, proxy string) *HTTPBrowser {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	transport := &http.Transport{
		DialTLSContext:    dialTLSChrome,
		ForceAttemptHTTP2: false,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
			transport.DialTLSContext = nil
		}
	}

	return &HTTPBrowser{
		userAgent: userAgent,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)

	var tlsConn *tls.UConn
	if chromeH1Spec != nil {
		tlsConn = tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
		if err := tlsConn.ApplyPreset(chromeH1Spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
		}
	} else {
		tlsConn = tls.UClient(conn, &tls.Config{ServerName: host, NextProtos: []string{"http/1.1"}}, tls.HelloGolang)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// Open fetches pageURL and replaces the current document. On failure the
// previous document is discarded so later queries cannot read stale content.
func (b *HTTPBrowser) Open(ctx context.Context, pageURL string) error {
	b.current, b.pageURL = nil, ""
	if err := CheckNavigable(pageURL); err != nil {
		return fmt.Errorf("http_engine: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Errorf("http_engine: build request: %w", err)
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || !isHTMLContentType(ct) {
		return fmt.Errorf("http_engine: non-html or error status %d (content-type: %s)", resp.StatusCode, ct)
	}

	doc, err := ParseDocument(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("http_engine: %w", err)
	}
	b.current, b.pageURL = doc, resp.Request.URL.String()
	return nil
}

// URL returns the final URL of the current page after redirects.
func (b *HTTPBrowser) URL() string { return b.pageURL }

// ChromeFingerprint reports whether TLS connections use the Chrome
// ClientHello. It is false when a proxy is configured.
func (b *HTTPBrowser) ChromeFingerprint() bool {
	t, ok := b.client.Transport.(*http.Transport)
	return ok && t.DialTLSContext != nil
}

func (b *HTTPBrowser) FindAll(ctx context.Context, selector, attr string) ([]Element, error) {
	if b.current == nil {
		return nil, errNoPage
	}
	return b.current.FindAll(selector, attr), nil
}

// FindOne ignores timeout: a static document will not change.
func (b *HTTPBrowser) FindOne(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	if b.current == nil {
		return Element{}, errNoPage
	}
	if err := ctx.Err(); err != nil {
		return Element{}, err
	}
	return b.current.FindOne(selector)
}

func (b *HTTPBrowser) Close() error {
	b.current = nil
	b.client.CloseIdleConnections()
	return nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
