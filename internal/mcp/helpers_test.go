package mcpserver

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"deckeditor/internal/domain"
)

func TestSummarizeElement_PreviewKeepsRunesWhole(t *testing.T) {
	content := "a" + strings.Repeat("é", 300)
	sum := summarizeElement(domain.Element{ID: "t", Type: domain.ElementText, Content: content})

	assert.True(t, utf8.ValidString(sum.Preview))
	assert.True(t, strings.HasSuffix(sum.Preview, "..."))
	assert.Equal(t, previewRunes, utf8.RuneCountInString(strings.TrimSuffix(sum.Preview, "...")))
	assert.True(t, strings.HasPrefix(content, strings.TrimSuffix(sum.Preview, "...")))

	short := summarizeElement(domain.Element{ID: "s", Type: domain.ElementText, Content: "héllo"})
	assert.Equal(t, "héllo", short.Preview)
}
