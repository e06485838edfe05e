package export

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/newslinks/models"
	"github.com/xuri/excelize/v2"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	return rows
}

func TestDefaultFilename(t *testing.T) {
	now := time.Date(2026, time.October, 9, 7, 5, 0, 0, time.UTC)

	assert.Equal(t, "www.bbc.com_0910_0705", DefaultFilename("www.bbc.com", now))
	assert.Equal(t, "www.bbc.com_0910_0705.xlsx", filepath.Base(Path("data", DefaultFilename("www.bbc.com", now))))
}

func TestDefaultFilename_MatchesPattern(t *testing.T) {
	name := filepath.Base(Path("data", DefaultFilename("news.example.com", time.Now())))

	assert.Regexp(t, regexp.MustCompile(`^news\.example\.com_\d{4}_\d{4}\.xlsx$`), name)
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "report.xlsx"), Path("out", "report"))
	assert.Equal(t, filepath.Join("out", "report.xlsx"), Path("out", "report.xlsx"))
	assert.Equal(t, filepath.Join("out", "report.v2.xlsx"), Path("out", "report.v2"))
}

func TestWriteArticles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.xlsx")
	records := []models.ArticleRecord{
		{LinkText: "Markets", LinkHref: "/news/markets", Title: "Markets rally", Description: "Stocks rose."},
		{LinkText: "Live", LinkHref: "/live", Title: "na", Description: "na"},
	}

	require.NoError(t, WriteArticles(path, records))

	assert.Equal(t, [][]string{
		{"link_text", "link_href", "title", "description"},
		{"Markets", "/news/markets", "Markets rally", "Stocks rose."},
		{"Live", "/live", "na", "na"},
	}, readRows(t, path))
}

func TestWriteArticles_EmptyWritesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	require.NoError(t, WriteArticles(path, nil))

	assert.Equal(t, [][]string{{"link_text", "link_href", "title", "description"}}, readRows(t, path))
}

func TestWriteLinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.xlsx")

	require.NoError(t, WriteLinks(path, []models.LinkRecord{
		{Text: "Contact", Href: "mailto:desk@example.com"},
		{Text: "=SUM(A1)", Href: "/formula-looking-text"},
	}))

	assert.Equal(t, [][]string{
		{"link_text", "link_href"},
		{"Contact", "mailto:desk@example.com"},
		{"=SUM(A1)", "/formula-looking-text"},
	}, readRows(t, path))
}

func TestWriteArticles_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteArticles(filepath.Join(blocker, "out.xlsx"), nil)

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeExport, se.Code)
}
