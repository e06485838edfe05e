package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/newslinks/engine"
)

// fakePage is the fixed content served for one URL.
type fakePage struct {
	links    []engine.Element
	elements map[string]engine.Element
	openErr  error
}

// fakeBrowser serves fixed pages and records every call.
type fakeBrowser struct {
	pages   map[string]fakePage
	current string

	opened   []string
	timeouts []time.Duration
	settled  []time.Duration
	closed   int

	// redirects maps a requested URL to the URL that is actually loaded.
	redirects map[string]string

	// staysOnNonHTTP makes Open of a non-http target succeed without
	// leaving the current page, the way Chrome treats mailto: links.
	staysOnNonHTTP bool

	// onOpen runs before each Open, after it is recorded.
	onOpen func(url string)
}

func newFakeBrowser(pages map[string]fakePage) *fakeBrowser {
	return &fakeBrowser{pages: pages}
}

func (f *fakeBrowser) Open(ctx context.Context, url string) error {
	f.opened = append(f.opened, url)
	if f.onOpen != nil {
		f.onOpen(url)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.staysOnNonHTTP && !strings.HasPrefix(url, "http") {
		return nil
	}
	if target, ok := f.redirects[url]; ok {
		url = target
	}
	page, ok := f.pages[url]
	if !ok {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED: %s", url)
	}
	if page.openErr != nil {
		return page.openErr
	}
	f.current = url
	return nil
}

func (f *fakeBrowser) URL() string { return f.current }

func (f *fakeBrowser) FindAll(ctx context.Context, selector, attr string) ([]engine.Element, error) {
	return f.pages[f.current].links, nil
}

func (f *fakeBrowser) FindOne(ctx context.Context, selector string, timeout time.Duration) (engine.Element, error) {
	f.timeouts = append(f.timeouts, timeout)
	el, ok := f.pages[f.current].elements[selector]
	if !ok {
		return engine.Element{}, fmt.Errorf("%w: %s within %s", engine.ErrNotFound, selector, timeout)
	}
	return el, nil
}

func (f *fakeBrowser) Close() error {
	f.closed++
	return nil
}

// settlingBrowser additionally implements engine.Settler.
type settlingBrowser struct {
	*fakeBrowser
	settleErr error
}

func (s *settlingBrowser) Settle(ctx context.Context, d time.Duration) error {
	s.settled = append(s.settled, d)
	return s.settleErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
