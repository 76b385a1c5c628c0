package marmite

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/eringen/marmite/richtext"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

const rssSummaryLen = 200

func (a *App) writeRSS(w io.Writer, recipes []Recipe) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(recipes))
	for _, r := range recipes {
		recipeURL := BuildURL(base, "recipes", r.Slug)
		pubDate := ""
		if !r.UpdatedAt.IsZero() {
			pubDate = r.UpdatedAt.Format(time.RFC1123Z)
		}
		summary := CookingTimeText(r.CookingTime)
		if method := richtext.PlainText(r.Method); method != "" {
			summary += " " + Truncate(method, rssSummaryLen)
		}
		items = append(items, rssItem{
			Title:       r.Title,
			Link:        recipeURL,
			Description: summary,
			PubDate:     pubDate,
			GUID:        recipeURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(feed)
}
