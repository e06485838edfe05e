package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/newslinks/config"
	"github.com/use-agent/newslinks/engine"
	"github.com/use-agent/newslinks/export"
	"github.com/use-agent/newslinks/extractor"
	"github.com/use-agent/newslinks/models"
	"github.com/use-agent/newslinks/scraper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// cliFlags holds the raw flag values; only flags the user set override the
// loaded configuration.
type cliFlags struct {
	configPath string
	filename   string
	website    string
	engine     string
	dataDir    string
	bodyFormat string
	logLevel   string
	delay      time.Duration
	headless   bool
	linksOnly  bool
	stealth    bool
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *cliFlags) {
	fs := flag.NewFlagSet("newslinks", flag.ContinueOnError)
	fs.SetOutput(stderr)
	defaults := config.Default()
	f := &cliFlags{}

	fs.StringVar(&f.configPath, "config", os.Getenv("NEWSLINKS_CONFIG"), "YAML config file (NEWSLINKS_CONFIG)")
	fs.StringVar(&f.filename, "filename", "", "Output spreadsheet name; defaults to {website}_{ddmm}_{HHMM}")
	fs.StringVar(&f.filename, "f", "", "Shorthand for --filename")
	fs.StringVar(&f.website, "website", defaults.Site.Website, "Hostname to collect links from, without scheme")
	fs.StringVar(&f.website, "w", defaults.Site.Website, "Shorthand for --website")
	fs.StringVar(&f.engine, "engine", defaults.Browser.Engine, "Page driver: rod or http")
	fs.StringVar(&f.dataDir, "data-dir", defaults.Export.DataDir, "Directory the spreadsheet is written to")
	fs.StringVar(&f.bodyFormat, "body-format", defaults.Scraper.BodyFormat, "Description format: text or markdown")
	fs.StringVar(&f.logLevel, "log-level", defaults.Log.Level, "debug, info, warn or error")
	fs.DurationVar(&f.delay, "delay", defaults.Scraper.Delay, "Maximum wait for the headline and body of each page")
	fs.BoolVar(&f.headless, "headless", defaults.Browser.Headless, "Run the browser without a window")
	fs.BoolVar(&f.linksOnly, "links-only", false, "Export the landing page links without visiting them")
	fs.BoolVar(&f.stealth, "stealth", defaults.Browser.Stealth, "Mask browser automation signals")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "newslinks - collect a news site's links and article headlines into a spreadsheet")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  newslinks [-f name] [-w hostname] [flags]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}
	return fs, f
}

// loadConfig parses args and layers the explicitly set flags over the file
// and environment configuration.
func loadConfig(args []string, stderr io.Writer) (*config.Config, error) {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeConfig, "failed to load configuration", err)
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "filename", "f":
			cfg.Export.Filename = f.filename
		case "website", "w":
			cfg.Site.Website = f.website
		case "engine":
			cfg.Browser.Engine = f.engine
		case "data-dir":
			cfg.Export.DataDir = f.dataDir
		case "body-format":
			cfg.Scraper.BodyFormat = f.bodyFormat
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "delay":
			cfg.Scraper.Delay = f.delay
		case "headless":
			cfg.Browser.Headless = f.headless
		case "links-only":
			cfg.Scraper.LinksOnly = f.linksOnly
		case "stealth":
			cfg.Browser.Stealth = f.stealth
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeConfig, "invalid configuration", err)
	}
	return cfg, nil
}

// run executes one harvest and returns the process exit code. The browser is
// closed on every path out of this function.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := loadConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := initLogger(cfg.Log, stderr).With("run", uuid.NewString())
	log := logger.With("logger", "main")

	filename := cfg.Export.Filename
	if filename == "" {
		filename = export.DefaultFilename(cfg.Site.Website, time.Now())
	}
	outPath := export.Path(cfg.Export.DataDir, filename)

	log.Info("newslinks starting",
		"website", cfg.Site.Website,
		"engine", cfg.Browser.Engine,
		"headless", cfg.Browser.Headless,
		"delay", cfg.Scraper.Delay,
		"linksOnly", cfg.Scraper.LinksOnly,
		"output", outPath,
	)

	browser, err := openBrowser(cfg.Browser, logger.With("logger", "scraper"))
	if err != nil {
		log.Error("failed to start browser", "error", err)
		return 1
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Warn("failed to close browser", "error", err)
		}
	}()

	if err := harvest(ctx, cfg, browser, outPath, logger); err != nil {
		log.Error("run failed", "error", err)
		return 1
	}
	log.Info("successfully saved output", "path", outPath)
	return 0
}

// harvest initializes the session, extracts, and exports.
func harvest(ctx context.Context, cfg *config.Config, browser engine.Browser, outPath string, logger *slog.Logger) error {
	landing, err := extractor.Initialize(ctx, browser, cfg.Site.Website,
		cfg.Scraper.Delay, cfg.Scraper.NavigationTimeout, logger.With("logger", "initializer"))
	if err != nil {
		return err
	}

	ex, err := extractor.New(browser, landing, extractor.OptionsFromConfig(cfg), logger.With("logger", "extractor"))
	if err != nil {
		return err
	}

	exportLog := logger.With("logger", "export")

	if cfg.Scraper.LinksOnly {
		links, err := ex.DiscoverLinks(ctx)
		if err != nil {
			return err
		}
		exportLog.Info("writing links", "rows", len(links), "path", outPath)
		return export.WriteLinks(outPath, links)
	}

	articles, err := ex.Run(ctx)
	if err != nil && len(articles) == 0 {
		return err
	}
	exportLog.Info("writing articles", "rows", len(articles), "path", outPath)
	if writeErr := export.WriteArticles(outPath, articles); writeErr != nil {
		return writeErr
	}
	// Interrupted runs keep what they collected but still exit non-zero.
	return err
}

func openBrowser(cfg config.BrowserConfig, logger *slog.Logger) (engine.Browser, error) {
	switch cfg.Engine {
	case config.EngineHTTP:
		logger.Info("using static http engine")
		b := engine.NewHTTPBrowser(cfg.UserAgent, cfg.Proxy)
		if !b.ChromeFingerprint() {
			logger.Warn("proxy configured, tls uses the default Go fingerprint", "proxy", cfg.Proxy)
		}
		return b, nil
	default:
		sess, err := scraper.NewSession(cfg, logger)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
