package telegram

import (
	"html"
	"regexp"
	"strings"
)

var (
	slackLink = regexp.MustCompile(`<(https?://[^|>\s]+)\|([^>]*)>`)
	boldSpan  = regexp.MustCompile(`\*([^*\n]+)\*`)
)

// toHTML renders Slack mrkdwn alerts as Telegram HTML: <url|title> links become anchors,
// *bold* spans become <b> and all other text is escaped.
func toHTML(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range slackLink.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(plain(text[last:m[0]]))
		link, title := text[m[2]:m[3]], text[m[4]:m[5]]
		b.WriteString(`<a href="` + html.EscapeString(link) + `">` + html.EscapeString(title) + `</a>`)
		last = m[1]
	}
	b.WriteString(plain(text[last:]))
	return b.String()
}

func plain(s string) string {
	return boldSpan.ReplaceAllString(html.EscapeString(s), "<b>$1</b>")
}
