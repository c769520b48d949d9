package workshop

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hfujimori/agenda-sync/internal/agenda"
)

var statsAbstractRE = regexp.MustCompile(`(?i)abstract`)

// parseStats walks the Applied Statistics WS listing. Identical block
// structure to urban; the page is bilingual but abstracts are flagged in
// English only, and it carries no "Past Seminars" section.
func parseStats(ctx context.Context, f Fetcher, src Source, baseYear int, today time.Time) ([]agenda.Event, error) {
	body, err := f.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	lines, err := textLines(body)
	if err != nil {
		return nil, err
	}

	var events []agenda.Event
	i, n := 0, len(lines)

	for i < n {
		if strings.HasPrefix(lines[i], "日時") {
			if i+1 >= n {
				break
			}
			dateRaw := agenda.StripWeekday(lines[i+1])
			i += 2

			for i < n && !strings.HasPrefix(lines[i], "報告") {
				i++
			}
			if i >= n-1 {
				break
			}
			i++

			var content []string
			for i < n &&
				!strings.HasPrefix(lines[i], "日時") &&
				!statsAbstractRE.MatchString(lines[i]) &&
				!urbanLabelRE.MatchString(lines[i]) {
				content = append(content, trimQuotes(lines[i]))
				i++
			}

			if len(content) == 0 {
				continue
			}

			if d, ok := agenda.NormalizeDate(dateRaw, baseYear, today); ok && !d.Before(today) {
				events = append(events, agenda.Event{
					Date:     d,
					Workshop: src.Name,
					Info:     strings.Join(content, ", "),
				})
			}
			continue
		}
		i++
	}
	return events, nil
}
