package models

// Sentinel is substituted for Title and Description when a visited page
// does not expose the expected headline/body markup.
const Sentinel = "na"

// LinkColumns and ArticleColumns are the spreadsheet header rows, in order.
var (
	LinkColumns    = []string{"link_text", "link_href"}
	ArticleColumns = []string{"link_text", "link_href", "title", "description"}
)

// LinkRecord is one anchor found on the landing page.
//
// Href is the attribute value verbatim: it may be relative, empty, or use a
// non-HTTP scheme such as mailto:. Duplicates are kept.
type LinkRecord struct {
	Text string `json:"link_text"`
	Href string `json:"link_href"`
}

// Row returns the record's cells in LinkColumns order.
func (l LinkRecord) Row() []any {
	return []any{l.Text, l.Href}
}

// ArticleRecord is the result of visiting one LinkRecord.
type ArticleRecord struct {
	LinkText    string `json:"link_text"`
	LinkHref    string `json:"link_href"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewArticleRecord returns a record for link with sentinel title and
// description.
func NewArticleRecord(link LinkRecord) ArticleRecord {
	return ArticleRecord{
		LinkText:    link.Text,
		LinkHref:    link.Href,
		Title:       Sentinel,
		Description: Sentinel,
	}
}

// Extracted reports whether the record carries real page content.
func (a ArticleRecord) Extracted() bool {
	return a.Title != Sentinel || a.Description != Sentinel
}

// Row returns the record's cells in ArticleColumns order.
func (a ArticleRecord) Row() []any {
	return []any{a.LinkText, a.LinkHref, a.Title, a.Description}
}
