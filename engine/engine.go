package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrNotFound is returned by FindOne when no element matches the selector
// before the timeout elapses.
var ErrNotFound = errors.New("element not found")

// ErrNotNavigable is returned by Open for URLs that do not load a document,
// such as mailto: or javascript: links.
var ErrNotNavigable = errors.New("url does not load a page")

// Element is the part of a DOM element the extractor reads.
type Element struct {
	// Text is the element's text as the engine reports it.
	Text string

	// Attr is the value of the attribute requested from FindAll, verbatim.
	// Empty when the attribute is absent or was not requested.
	Attr string

	// HTML is the element's outer HTML (FindOne only).
	HTML string
}

// Browser is the minimal page driver used by the initializer and the
// extractor. Implementations own a single page and are not safe for
// concurrent use.
type Browser interface {
	// Open navigates the page to url and waits for it to load. When it
	// fails, later queries must not see the previous page.
	Open(ctx context.Context, url string) error

	// URL is the address of the current document after redirects, or ""
	// when no page is loaded.
	URL() string

	// FindAll returns every element matching selector, in document order,
	// with attr read from each. It does not wait for elements to appear.
	FindAll(ctx context.Context, selector, attr string) ([]Element, error)

	// FindOne waits up to timeout for an element matching selector and
	// returns the first one. It returns an error wrapping ErrNotFound when
	// nothing matches in time.
	FindOne(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// Close releases the page and any process behind it. Safe to call more
	// than once.
	Close() error
}

// Settler is implemented by engines whose pages keep changing after load
// (script-rendered content). Settle blocks until the DOM is stable or d
// elapses.
type Settler interface {
	Settle(ctx context.Context, d time.Duration) error
}

// CheckNavigable returns an error wrapping ErrNotNavigable unless rawURL is
// an absolute http or https URL.
func CheckNavigable(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotNavigable, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrNotNavigable, rawURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrNotNavigable, rawURL)
	}
	return nil
}
