package wikipedia

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/okian/wikiline/internal/domain/model"
)

const searchBase = "https://en.wikipedia.org/wiki/Special:Search?search="

// trailingParen matches a parenthetical at the end of an event text.
var trailingParen = regexp.MustCompile(`\s+\(.*?\)$`)

// parseEvents extracts candidate records from an on-this-day response.
// Entries without a numeric year or a text are skipped.
func parseEvents(body []byte) []model.EventRecord {
	var out []model.EventRecord
	gjson.GetBytes(body, "events").ForEach(func(_, ev gjson.Result) bool {
		year, text := ev.Get("year"), ev.Get("text")
		if year.Type != gjson.Number || text.Type != gjson.String {
			return true
		}
		title := trailingParen.ReplaceAllString(text.String(), "")

		var page gjson.Result
		if pages := ev.Get("pages"); pages.IsArray() {
			page = pages.Get("0")
		}
		link := firstNonEmpty(
			page.Get("content_urls.desktop.page").String(),
			page.Get("content_urls.mobile.page").String(),
			SearchURL(title),
		)
		thumb := firstNonEmpty(
			page.Get("thumbnail.source").String(),
			page.Get("originalimage.source").String(),
		)

		out = append(out, model.EventRecord{
			Year:      int(year.Int()),
			Title:     title,
			URL:       link,
			Thumbnail: thumb,
		})
		return true
	})
	return out
}

// SearchURL links to a Wikipedia search for title.
func SearchURL(title string) string {
	return searchBase + strings.ReplaceAll(url.QueryEscape(title), "+", "%20")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
