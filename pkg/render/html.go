package render

import (
	"regexp"
	"strings"

	"github.com/russross/blackfriday"
)

const (
	htmlFlags = blackfriday.HTML_USE_XHTML | blackfriday.HTML_SKIP_HTML | blackfriday.HTML_SKIP_STYLE | blackfriday.HTML_SKIP_IMAGES

	extensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
		blackfriday.EXTENSION_FENCED_CODE |
		blackfriday.EXTENSION_AUTOLINK |
		blackfriday.EXTENSION_STRIKETHROUGH |
		blackfriday.EXTENSION_SPACE_HEADERS
)

// Telegram only understands a handful of tags, everything else is rewritten or dropped.
var (
	tagReplacer = strings.NewReplacer(
		"<p>", "",
		"</p>", "\n",
		"<strong>", "<b>",
		"</strong>", "</b>",
		"<em>", "<i>",
		"</em>", "</i>",
		"<del>", "<s>",
		"</del>", "</s>",
		"<ul>", "",
		"</ul>", "",
		"<ol>", "",
		"</ol>", "",
		"<li>", "• ",
		"</li>", "",
		"<br />", "\n",
		"<hr />", "",
	)
	headerOpen    = regexp.MustCompile(`<h[1-6][^>]*>`)
	headerClose   = regexp.MustCompile(`</h[1-6]>`)
	extraNewlines = regexp.MustCompile(`\n{3,}`)
)

// ToHTML converts model Markdown into Telegram-flavoured HTML.
func ToHTML(markdown string) string {
	renderer := blackfriday.HtmlRenderer(htmlFlags, "", "")
	out := string(blackfriday.Markdown([]byte(markdown), renderer, extensions))

	out = headerOpen.ReplaceAllString(out, "<b>")
	out = headerClose.ReplaceAllString(out, "</b>\n")
	out = tagReplacer.Replace(out)
	out = extraNewlines.ReplaceAllString(out, "\n\n")

	return strings.TrimSpace(out)
}
