package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/newslinks/cleaner"
	"github.com/use-agent/newslinks/config"
	"github.com/use-agent/newslinks/engine"
	"github.com/use-agent/newslinks/models"
)

// Options is the extractor's complete configuration. Nothing is read from
// package state.
type Options struct {
	// Delay bounds each wait for the headline and the body element.
	Delay time.Duration

	// NavigationTimeout bounds each page load. Zero leaves it to the
	// caller's context.
	NavigationTimeout time.Duration

	LinkSelector     string
	HeadlineSelector string
	BodySelector     string

	// BodyFormat is config.BodyFormatText or config.BodyFormatMarkdown.
	BodyFormat string
}

// OptionsFromConfig extracts the extractor's settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Delay:             cfg.Scraper.Delay,
		NavigationTimeout: cfg.Scraper.NavigationTimeout,
		LinkSelector:      cfg.Site.LinkSelector,
		HeadlineSelector:  cfg.Site.HeadlineSelector,
		BodySelector:      cfg.Site.BodySelector,
		BodyFormat:        cfg.Scraper.BodyFormat,
	}
}

// linkState tracks one link through phase 2:
// pending -> navigating -> extracted | failed.
type linkState int

const (
	statePending linkState = iota
	stateNavigating
	stateExtracted
	stateFailed
)

func (s linkState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateNavigating:
		return "navigating"
	case stateExtracted:
		return "extracted"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("linkState(%d)", int(s))
	}
}

// Extractor collects the links of the page the browser is on and visits each
// one for its headline and body. It is the browser's only user for the
// duration of a run.
type Extractor struct {
	browser  engine.Browser
	opts     Options
	base     *url.URL
	markdown *cleaner.Markdown
	logger   *slog.Logger
}

// New creates an Extractor for a browser positioned at landingURL, which is
// also the base for resolving relative hrefs. Pass the URL returned by
// Initialize so redirects are honoured.
func New(b engine.Browser, landingURL string, opts Options, logger *slog.Logger) (*Extractor, error) {
	base, err := url.Parse(landingURL)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid landing URL", err)
	}
	if opts.LinkSelector == "" {
		opts.LinkSelector = "a[href]"
	}

	e := &Extractor{
		browser: b,
		opts:    opts,
		base:    base,
		logger:  logger,
	}
	if opts.BodyFormat == config.BodyFormatMarkdown {
		e.markdown = cleaner.NewMarkdown()
	}
	return e, nil
}

// Run discovers the landing page's links and extracts an article for each.
func (e *Extractor) Run(ctx context.Context) ([]models.ArticleRecord, error) {
	links, err := e.DiscoverLinks(ctx)
	if err != nil {
		return nil, err
	}

	articles, err := e.ExtractArticles(ctx, links)
	e.logger.Info("found links", "count", len(links))
	return articles, err
}

// DiscoverLinks returns one record per element matching the link selector on
// the current page, in document order. Hrefs are kept verbatim; nothing is
// filtered or deduplicated.
func (e *Extractor) DiscoverLinks(ctx context.Context) ([]models.LinkRecord, error) {
	e.logger.Info("getting all links from homepage", "selector", e.opts.LinkSelector)

	elements, err := e.browser.FindAll(ctx, e.opts.LinkSelector, "href")
	if err != nil {
		return nil, categorizeError(err, "failed to collect links")
	}

	links := make([]models.LinkRecord, len(elements))
	for i, el := range elements {
		links[i] = models.LinkRecord{Text: el.Text, Href: el.Attr}
	}
	return links, nil
}

// ExtractArticles visits each link in order and returns exactly one record
// per link. A link whose page cannot be loaded or lacks the headline/body
// markup gets sentinel values; it never stops the run.
//
// If ctx is canceled, the records completed so far are returned together
// with the cancellation error.
func (e *Extractor) ExtractArticles(ctx context.Context, links []models.LinkRecord) ([]models.ArticleRecord, error) {
	e.logger.Info("getting title and description from all stored links", "count", len(links))

	articles := make([]models.ArticleRecord, 0, len(links))
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return articles, categorizeError(err, "extraction interrupted")
		}

		rec, state, err := e.extractOne(ctx, link)
		if err != nil && ctx.Err() != nil {
			return articles, categorizeError(ctx.Err(), "extraction interrupted")
		}
		if state == stateFailed {
			e.logger.Error("could not find title and description",
				"link", link.Href, "index", i, "error", err)
		} else {
			e.logger.Debug("extracted article", "link", link.Href, "index", i, "state", state)
		}
		articles = append(articles, rec)
	}

	var extracted int
	for _, a := range articles {
		if a.Extracted() {
			extracted++
		}
	}
	e.logger.Info("extraction finished",
		"links", len(links),
		"extracted", extracted,
		"failed", len(articles)-extracted,
	)
	return articles, nil
}

// extractOne drives a single link to a terminal state.
func (e *Extractor) extractOne(ctx context.Context, link models.LinkRecord) (models.ArticleRecord, linkState, error) {
	rec := models.NewArticleRecord(link)

	target, err := e.resolve(link.Href)
	if err != nil {
		return rec, stateFailed, err
	}

	e.logger.Debug("visiting link", "link", link.Href, "target", target, "state", stateNavigating)

	navCtx, cancel := withOptionalTimeout(ctx, e.opts.NavigationTimeout)
	err = e.browser.Open(navCtx, target)
	cancel()
	if err != nil {
		return rec, stateFailed, err
	}

	headline, err := e.browser.FindOne(ctx, e.opts.HeadlineSelector, e.opts.Delay)
	if err != nil {
		return rec, stateFailed, err
	}
	body, err := e.browser.FindOne(ctx, e.opts.BodySelector, e.opts.Delay)
	if err != nil {
		return rec, stateFailed, err
	}

	description := body.Text
	if e.markdown != nil {
		description, err = e.markdown.Convert(body.HTML, target)
		if err != nil {
			return rec, stateFailed, fmt.Errorf("convert body to markdown: %w", err)
		}
	}

	rec.Title = headline.Text
	rec.Description = description
	return rec, stateExtracted, nil
}

// resolve turns href into an absolute navigation target against the landing
// URL. The recorded href is not changed. Targets that would not load a page
// (mailto:, javascript:) are rejected here so they are never opened.
func (e *Extractor) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("malformed href %q: %w", href, err)
	}
	target := e.base.ResolveReference(ref).String()
	if err := engine.CheckNavigable(target); err != nil {
		return "", err
	}
	return target, nil
}
