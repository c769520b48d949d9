package workshop

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hfujimori/agenda-sync/internal/agenda"
)

const microMarker = "Microeconomic Theory Workshop"

// parseMicro reads the WordPress events calendar used by the Micro Theory
// WS. The list page carries machine-readable dates; speaker and title
// live on each event's detail page.
func parseMicro(ctx context.Context, f Fetcher, src Source, _ int, today time.Time) ([]agenda.Event, error) {
	body, err := f.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var events []agenda.Event
	var fetchErr error

	doc.Find("div.tribe-events-calendar-list__event-wrapper").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		datetime, ok := div.Find("time").First().Attr("datetime")
		if !ok {
			return true
		}
		iso := strings.SplitN(datetime, "T", 2)[0]
		d, perr := time.ParseInLocation("2006-01-02", iso, time.UTC)
		if perr != nil || d.Before(today) {
			return true
		}

		href, ok := div.Find("a.tribe-events-calendar-list__event-title-link").First().Attr("href")
		if !ok {
			return true
		}

		detail, derr := f.Fetch(ctx, href)
		if derr != nil {
			fetchErr = derr
			return false
		}
		lines, lerr := textLines(detail)
		if lerr != nil {
			fetchErr = lerr
			return false
		}

		author, title := extractMicroInfo(lines)
		if author == "" || title == "" {
			return true
		}

		info := author + ", " + title
		if containsFold(author+title, "tba") {
			info = "TBA"
		}

		events = append(events, agenda.Event{
			Date:     agenda.Date{Time: d},
			Workshop: src.Name,
			Info:     info,
		})
		return true
	})

	if fetchErr != nil {
		return nil, fetchErr
	}
	return events, nil
}

// extractMicroInfo pulls the speaker and talk title out of a detail page.
// The speaker is whatever precedes the workshop name on its line; the
// title follows a "Title:" or 「タイトル:」 label.
func extractMicroInfo(lines []string) (author, title string) {
	for _, ln := range lines {
		if strings.Contains(ln, microMarker) && author == "" {
			author = strings.TrimRight(strings.Trim(strings.SplitN(ln, microMarker, 2)[0], "　 "), " ")
		}
		if hasJPTitleLabel(ln) && title == "" {
			title = titleAfterLabel(ln)
		}
		if author != "" && title != "" {
			break
		}
	}
	return author, title
}

func hasJPTitleLabel(ln string) bool {
	return hasPrefixFold(ln, "title:") || strings.HasPrefix(ln, "タイトル:") || strings.HasPrefix(ln, "タイトル：")
}

func titleAfterLabel(ln string) string {
	rest := ln
	if idx := strings.Index(rest, ":"); idx >= 0 {
		rest = rest[idx+1:]
	}
	if idx := strings.Index(rest, "："); idx >= 0 {
		rest = rest[idx+len("："):]
	}
	return strings.TrimSpace(rest)
}
