package extractor

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/newslinks/config"
	"github.com/use-agent/newslinks/engine"
	"github.com/use-agent/newslinks/models"
)

// Initialize positions b at https://{website} and lets the page settle for
// up to delay. website must be a bare hostname. navTimeout bounds the
// navigation itself; zero leaves it to ctx.
//
// It returns the URL the browser ended up on, which differs from
// https://{website} when the site redirects. Any failure here is fatal to
// the run.
func Initialize(ctx context.Context, b engine.Browser, website string, delay, navTimeout time.Duration, logger *slog.Logger) (string, error) {
	if err := config.ValidateWebsite(website); err != nil {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, "invalid website", err)
	}
	landing := "https://" + website

	navCtx, cancel := withOptionalTimeout(ctx, navTimeout)
	defer cancel()

	if err := b.Open(navCtx, landing); err != nil {
		return "", categorizeError(err, "failed to load landing page")
	}

	if s, ok := b.(engine.Settler); ok && delay > 0 {
		if err := s.Settle(ctx, delay); err != nil {
			return "", categorizeError(err, "landing page did not settle")
		}
	}

	if final := b.URL(); final != "" {
		landing = final
	}
	logger.Info("successfully loaded website", "website", website, "url", landing)
	return landing, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
