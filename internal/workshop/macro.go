package workshop

import (
	"context"
	"strings"
	"time"

	"github.com/hfujimori/agenda-sync/internal/agenda"
)

// parseMacro walks the Macroeconomics WS listing. Block structure:
//
//	Date & Time: ...
//	<date line>
//	Venue: ...
//	Speaker:
//	<one or more lines>
//	Title:
//	<one or more lines>
//
// Everything between the Speaker label and the next Date label (minus the
// Title label itself) becomes the info text. "Past Seminars" ends the
// upcoming section.
func parseMacro(ctx context.Context, f Fetcher, src Source, baseYear int, today time.Time) ([]agenda.Event, error) {
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

		if hasPrefixFold(lines[i], "date") {
			if i+1 >= n {
				break
			}
			dateRaw := agenda.StripWeekday(lines[i+1])
			i += 2

			for i < n && !hasPrefixFold(lines[i], "speaker") {
				i++
			}
			if i >= n-1 {
				break
			}
			i++ // past the Speaker label, onto content

			var content []string
			for i < n && !hasPrefixFold(lines[i], "date") {
				if hasPrefixFold(lines[i], "title") {
					i++
					continue
				}
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
