package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Compte rendu</title></head>
<body>
<nav>menu</nav>
<article>
<h1>Observation</h1>
<p>Le patient ne presente pas de signe de covid. Il souffre d'asthme depuis des annees et suit un traitement quotidien.</p>
<p>Un suivi rapproche est recommande pour les prochains mois, avec une consultation de controle prevue.</p>
</article>
<footer>pied de page</footer>
</body>
</html>`

func TestHTMLConverter_Convert(t *testing.T) {
	converter := NewHTMLConverter(nil)
	doc, err := converter.Convert([]byte(samplePage), "https://example.org/cr/1")
	require.NoError(t, err)

	assert.Equal(t, "Compte rendu", doc.Metadata()["title"])
	assert.Equal(t, "https://example.org/cr/1", doc.Metadata()["source_url"])
	assert.Contains(t, doc.Text(), "asthme")
	assert.NotContains(t, doc.Text(), "pied de page")
}

func TestHTMLConverter_InvalidURL(t *testing.T) {
	converter := NewHTMLConverter(nil)
	_, err := converter.Convert([]byte(samplePage), "://bad")
	assert.Error(t, err)
}

func TestExtractHTMLTitle(t *testing.T) {
	assert.Equal(t, "Compte rendu", extractHTMLTitle([]byte(samplePage)))
	assert.Equal(t, "", extractHTMLTitle([]byte("<p>no title</p>")))
}

func TestPruneToBody(t *testing.T) {
	pruned := pruneToBody([]byte(samplePage))
	assert.Contains(t, pruned, "asthme")
	assert.NotContains(t, pruned, "menu")
	assert.NotContains(t, pruned, "pied de page")
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "a\n\n\nb", cleanMarkdown("a\n\n\n\n\n\nb  \n"))
}

func TestExtractMarkdownTitle(t *testing.T) {
	assert.Equal(t, "Observation", extractMarkdownTitle("intro\n# Observation\ntext"))
	assert.Equal(t, "", extractMarkdownTitle("no heading"))
}

func TestLoadTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cr_123.txt")
	require.NoError(t, os.WriteFile(path, []byte("Le patient va bien."), 0o644))

	doc, err := LoadTextFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Le patient va bien.", doc.Text())
	assert.Equal(t, "cr_123", doc.Metadata()["name"])
	assert.Equal(t, path, doc.Metadata()["path_to_text"])
}
