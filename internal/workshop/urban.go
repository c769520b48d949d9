package workshop

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hfujimori/agenda-sync/internal/agenda"
)

var (
	urbanLabelRE    = regexp.MustCompile(`^(日時|Venue|報告|Speaker)`)
	urbanAbstractRE = regexp.MustCompile(`(?i)(abstract|要旨)`)
)

// parseUrban walks the Urban Economics WS listing. Same block structure
// as macro but keyed on the Japanese labels 「日時」 (date) and 「報告」
// (presentation); content stops at the next label or an abstract.
func parseUrban(ctx context.Context, f Fetcher, src Source, baseYear int, today time.Time) ([]agenda.Event, error) {
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
		if containsFold(lines[i], "past seminars") {
			break
		}

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
				!urbanLabelRE.MatchString(lines[i]) &&
				!urbanAbstractRE.MatchString(lines[i]) {
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
