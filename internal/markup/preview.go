// Package markup turns rich-text post content into short plain previews.
package markup

import (
	"regexp"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

const ellipsis = "…"

var (
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
)

// Previewer converts HTML to markdown and cuts it to a rune budget
type Previewer struct {
	converter *md.Converter
	limit     int
}

// NewPreviewer creates a previewer. A limit of zero disables previews.
func NewPreviewer(limit int) *Previewer {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Previewer{converter: converter, limit: limit}
}

// Preview returns at most limit runes of markdown on a single line
func (p *Previewer) Preview(html string) string {
	if p.limit <= 0 || html == "" {
		return ""
	}

	cleaned := scriptRe.ReplaceAllString(html, "")
	cleaned = styleRe.ReplaceAllString(cleaned, "")

	text, err := p.converter.ConvertString(cleaned)
	if err != nil {
		text = cleaned
	}
	return truncate(strings.Join(strings.Fields(text), " "), p.limit)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRight(string(runes[:limit]), " ")
	return cut + ellipsis
}
