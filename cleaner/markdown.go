package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Markdown converts article body HTML to Markdown. It is safe for
// concurrent use.
type Markdown struct {
	conv *converter.Converter
}

// NewMarkdown creates a converter with the base, commonmark and table
// plugins. Tables keep minimal cell padding.
func NewMarkdown() *Markdown {
	return &Markdown{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// Convert renders htmlContent as Markdown. Relative links and images are
// resolved against pageURL.
func (m *Markdown) Convert(htmlContent, pageURL string) (string, error) {
	out, err := m.conv.ConvertString(htmlContent, converter.WithDomain(pageURL))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
