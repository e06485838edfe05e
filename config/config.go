package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
)

// Engine names accepted by BrowserConfig.Engine.
const (
	EngineRod  = "rod"
	EngineHTTP = "http"
)

// Body formats accepted by ScraperConfig.BodyFormat.
const (
	BodyFormatText     = "text"
	BodyFormatMarkdown = "markdown"
)

// Config holds all application configuration.
type Config struct {
	Site    SiteConfig
	Browser BrowserConfig
	Scraper ScraperConfig
	Export  ExportConfig
	Log     LogConfig
}

// SiteConfig describes the landing page and its presentation markup.
type SiteConfig struct {
	// Website is a bare hostname; the scheme is added by the initializer.
	Website string // default: "www.bbc.com"

	// LinkSelector matches the anchors collected from the landing page.
	LinkSelector string // default: "a[href]"

	// HeadlineSelector locates the article title on a visited page.
	HeadlineSelector string // default: "h1[class*='qa-story-headline']"

	// BodySelector locates the article body on a visited page.
	BodySelector string // default: "div[class*='qa-story-body']"
}

// BrowserConfig controls the browser engine.
type BrowserConfig struct {
	// Engine selects the page driver: "rod" (Chromium) or "http" (static HTML).
	Engine string // default: "rod"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL for all requests.
	Proxy string

	// Stealth injects anti-bot-detection evasions before each navigation.
	Stealth bool // default: false

	// UserAgent overrides the User-Agent header when non-empty.
	UserAgent string

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig controls extraction behavior.
type ScraperConfig struct {
	// Delay bounds every wait for an element on a visited page.
	Delay time.Duration // default: 5s

	// NavigationTimeout bounds a single page navigation.
	NavigationTimeout time.Duration // default: 30s

	// BodyFormat is "text" (element text verbatim) or "markdown".
	BodyFormat string // default: "text"

	// LinksOnly skips article extraction and exports the links alone.
	LinksOnly bool // default: false
}

// ExportConfig controls the spreadsheet output.
type ExportConfig struct {
	// DataDir is the directory the spreadsheet is written to.
	DataDir string // default: "data"

	// Filename is the output name without extension. Empty means
	// "{website}_{ddmm}_{HHMM}".
	Filename string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Website:          "www.bbc.com",
			LinkSelector:     "a[href]",
			HeadlineSelector: "h1[class*='qa-story-headline']",
			BodySelector:     "div[class*='qa-story-body']",
		},
		Browser: BrowserConfig{
			Engine:               EngineRod,
			Headless:             true,
			BlockedResourceTypes: []string{"Image", "Font", "Media"},
		},
		Scraper: ScraperConfig{
			Delay:             5 * time.Second,
			NavigationTimeout: 30 * time.Second,
			BodyFormat:        BodyFormatText,
		},
		Export: ExportConfig{
			DataDir: "data",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and NEWSLINKS_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		fc.Apply(cfg)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Site.Website = envOr("NEWSLINKS_WEBSITE", cfg.Site.Website)
	cfg.Site.LinkSelector = envOr("NEWSLINKS_LINK_SELECTOR", cfg.Site.LinkSelector)
	cfg.Site.HeadlineSelector = envOr("NEWSLINKS_HEADLINE_SELECTOR", cfg.Site.HeadlineSelector)
	cfg.Site.BodySelector = envOr("NEWSLINKS_BODY_SELECTOR", cfg.Site.BodySelector)

	cfg.Browser.Engine = envOr("NEWSLINKS_ENGINE", cfg.Browser.Engine)
	cfg.Browser.Headless = envBoolOr("NEWSLINKS_HEADLESS", cfg.Browser.Headless)
	cfg.Browser.NoSandbox = envBoolOr("NEWSLINKS_NO_SANDBOX", cfg.Browser.NoSandbox)
	cfg.Browser.BrowserBin = envOr("NEWSLINKS_BROWSER_BIN", cfg.Browser.BrowserBin)
	cfg.Browser.Proxy = envOr("NEWSLINKS_PROXY", cfg.Browser.Proxy)
	cfg.Browser.Stealth = envBoolOr("NEWSLINKS_STEALTH", cfg.Browser.Stealth)
	cfg.Browser.UserAgent = envOr("NEWSLINKS_USER_AGENT", cfg.Browser.UserAgent)
	cfg.Browser.BlockedResourceTypes = envSliceOr("NEWSLINKS_BLOCKED_RESOURCES", cfg.Browser.BlockedResourceTypes)

	cfg.Scraper.Delay = envDurationOr("NEWSLINKS_DELAY", cfg.Scraper.Delay)
	cfg.Scraper.NavigationTimeout = envDurationOr("NEWSLINKS_NAV_TIMEOUT", cfg.Scraper.NavigationTimeout)
	cfg.Scraper.BodyFormat = envOr("NEWSLINKS_BODY_FORMAT", cfg.Scraper.BodyFormat)
	cfg.Scraper.LinksOnly = envBoolOr("NEWSLINKS_LINKS_ONLY", cfg.Scraper.LinksOnly)

	cfg.Export.DataDir = envOr("NEWSLINKS_DATA_DIR", cfg.Export.DataDir)
	cfg.Export.Filename = envOr("NEWSLINKS_FILENAME", cfg.Export.Filename)

	cfg.Log.Level = envOr("NEWSLINKS_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("NEWSLINKS_LOG_FORMAT", cfg.Log.Format)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if err := ValidateWebsite(c.Site.Website); err != nil {
		errs = append(errs, err)
	}
	for name, sel := range map[string]string{
		"link selector":     c.Site.LinkSelector,
		"headline selector": c.Site.HeadlineSelector,
		"body selector":     c.Site.BodySelector,
	} {
		if _, err := cascadia.ParseGroup(sel); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", name, sel, err))
		}
	}

	switch c.Browser.Engine {
	case EngineRod, EngineHTTP:
	default:
		errs = append(errs, fmt.Errorf("unknown engine %q (want %q or %q)", c.Browser.Engine, EngineRod, EngineHTTP))
	}

	if c.Scraper.Delay <= 0 {
		errs = append(errs, fmt.Errorf("delay must be positive, got %s", c.Scraper.Delay))
	}
	if c.Scraper.NavigationTimeout < 0 {
		errs = append(errs, fmt.Errorf("navigation timeout must not be negative, got %s", c.Scraper.NavigationTimeout))
	}
	switch c.Scraper.BodyFormat {
	case BodyFormatText, BodyFormatMarkdown:
	default:
		errs = append(errs, fmt.Errorf("unknown body format %q", c.Scraper.BodyFormat))
	}

	if c.Export.DataDir == "" {
		errs = append(errs, errors.New("data directory must not be empty"))
	}
	if strings.ContainsAny(c.Export.Filename, `/\`) {
		errs = append(errs, fmt.Errorf("filename %q must not contain path separators", c.Export.Filename))
	}

	return errors.Join(errs...)
}

// ValidateWebsite checks that website is a bare hostname: no scheme, path,
// query, or whitespace. A port suffix is allowed.
func ValidateWebsite(website string) error {
	if website == "" {
		return errors.New("website must not be empty")
	}
	if strings.Contains(website, "://") {
		return fmt.Errorf("website %q must be a bare hostname without scheme", website)
	}
	if strings.ContainsAny(website, "/?#@ \t\r\n") {
		return fmt.Errorf("website %q must be a bare hostname", website)
	}
	u, err := url.Parse("https://" + website)
	if err != nil {
		return fmt.Errorf("website %q: %w", website, err)
	}
	if u.Host != website || u.Hostname() == "" {
		return fmt.Errorf("website %q is not a valid hostname", website)
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		return splitList(v)
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
