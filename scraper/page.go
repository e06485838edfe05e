package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/newslinks/engine"
)

// findAllJS collects text and one attribute for every match in a single
// round trip; querySelectorAll returns document order. Elements that are not
// rendered have no visible text, so their text is empty.
const findAllJS = `(selector, attr) => Array.from(document.querySelectorAll(selector), el => ({
	text: (typeof el.checkVisibility !== "function" || el.checkVisibility()) ? (el.innerText || "") : "",
	attr: attr ? (el.getAttribute(attr) || "") : "",
}))`

// errNoPage is returned by queries after a failed Open.
var errNoPage = errors.New("scraper: no page loaded")

// Open navigates the page and waits for the load event. The context bounds
// both steps. Targets that do not load a document are rejected before
// navigating: Chrome accepts them without leaving the current page.
func (s *Session) Open(ctx context.Context, url string) error {
	s.loaded = false
	if err := engine.CheckNavigable(url); err != nil {
		return err
	}

	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s to load: %w", url, err)
	}
	s.loaded = true
	return nil
}

// URL returns the current document's address after redirects.
func (s *Session) URL() string {
	if !s.loaded {
		return ""
	}
	info, err := s.page.Info()
	if err != nil {
		s.logger.Debug("failed to read page info", "error", err)
		return ""
	}
	return info.URL
}

// Settle waits up to d for the DOM to stop changing. Running out of time is
// not an error: the page is used as it is.
func (s *Session) Settle(ctx context.Context, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := s.page.Context(ctx).WaitDOMStable(300*time.Millisecond, 0.1)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		s.logger.Debug("DOM did not settle, proceeding with current DOM", "wait", d)
		return nil
	}
	return err
}

func (s *Session) FindAll(ctx context.Context, selector, attr string) ([]engine.Element, error) {
	if !s.loaded {
		return nil, errNoPage
	}
	res, err := s.page.Context(ctx).Eval(findAllJS, selector, attr)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}

	items := res.Value.Arr()
	out := make([]engine.Element, 0, len(items))
	for _, item := range items {
		m := item.Map()
		out = append(out, engine.Element{Text: m["text"].Str(), Attr: m["attr"].Str()})
	}
	return out, nil
}

// FindOne polls for selector until it matches or timeout elapses. A
// non-positive timeout checks once.
func (s *Session) FindOne(ctx context.Context, selector string, timeout time.Duration) (engine.Element, error) {
	if !s.loaded {
		return engine.Element{}, errNoPage
	}
	parent := ctx
	p := s.page.Context(ctx)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
		p = s.page.Context(ctx)
	} else {
		p = p.Sleeper(rod.NotFoundSleeper)
	}

	el, err := p.Element(selector)
	if err != nil {
		return engine.Element{}, lookupError(err, parent, selector, timeout)
	}

	text, err := el.Text()
	if err != nil {
		return engine.Element{}, fmt.Errorf("read text of %s: %w", selector, err)
	}
	html, err := el.HTML()
	if err != nil {
		return engine.Element{}, fmt.Errorf("read html of %s: %w", selector, err)
	}
	return engine.Element{Text: text, HTML: html}, nil
}

// lookupError classifies a failed element lookup. Running out of the lookup's
// own timeout means not found; a done parent context is passed through so the
// caller can tell an interrupted run from a missing element.
func lookupError(err error, parent context.Context, selector string, timeout time.Duration) error {
	var nf *rod.ElementNotFoundError
	if errors.As(err, &nf) || (errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil) {
		return fmt.Errorf("%w: %s within %s", engine.ErrNotFound, selector, timeout)
	}
	return fmt.Errorf("find %s: %w", selector, err)
}
