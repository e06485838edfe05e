package extractor

import (
	"context"
	"errors"

	"github.com/use-agent/newslinks/models"
)

// categorizeError wraps raw errors into typed ScrapeErrors so main can report
// a stable code.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "run canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
