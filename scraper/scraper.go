package scraper

import (
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/newslinks/config"
	"github.com/use-agent/newslinks/engine"
	"github.com/use-agent/newslinks/models"
	"github.com/ysmood/gson"
)

var _ engine.Browser = (*Session)(nil)

// Session is a launched Chromium with a single page. The page is owned
// exclusively by the session; it is not safe for concurrent use.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	logger   *slog.Logger

	// loaded is false until an Open succeeds and again after one fails.
	loaded bool

	closeOnce sync.Once
	closeErr  error
}

// NewSession launches a browser and opens the page every later call drives.
// Launch failures are returned as BROWSER_LAUNCH errors.
func NewSession(cfg config.BrowserConfig, logger *slog.Logger) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to launch browser", err)
	}
	logger.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to connect to browser", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to open page", err)
	}

	// Stealth and headers only apply to navigations made after they are set.
	if cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			logger.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	if cfg.UserAgent != "" {
		headers := proto.NetworkHeaders{"User-Agent": gson.New(cfg.UserAgent)}
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(page); err != nil {
			logger.Warn("failed to set extra headers", "error", err)
		}
	}

	return &Session{
		launcher: l,
		browser:  browser,
		page:     page,
		router:   setupHijack(page, cfg.BlockedResourceTypes),
		logger:   logger,
	}, nil
}

// Close stops request interception, closes the browser and kills the
// process. Only the first call does any work.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("closing browser")
		if s.router != nil {
			_ = s.router.Stop()
		}
		s.closeErr = s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return s.closeErr
}
